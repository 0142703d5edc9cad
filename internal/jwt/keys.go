package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Keystore sostiene la clave de firma ed25519 activa.
// Single-key por ahora; el KID ya viaja en el header para que una futura
// rotación no rompa la verificación.
type Keystore struct {
	kid  string
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// Active retorna (kid, priv, pub).
func (k *Keystore) Active() (string, ed25519.PrivateKey, ed25519.PublicKey) {
	return k.kid, k.priv, k.pub
}

// KeystoreFromSeed construye el keystore desde una seed ed25519 de 32 bytes
// en base64 (estándar o URL-safe, con o sin padding).
func KeystoreFromSeed(encoded string) (*Keystore, error) {
	seed, err := decodeB64(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("jwt: decode signing key seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwt: signing key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return fromSeed(seed), nil
}

// KeystoreFromFile lee la seed base64 desde un archivo (p.ej. un secret
// montado).
func KeystoreFromFile(path string) (*Keystore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jwt: read signing key file: %w", err)
	}
	return KeystoreFromSeed(string(raw))
}

// EphemeralKeystore genera una clave aleatoria. Solo para dev/tests: los
// tokens no sobreviven un restart del proceso.
func EphemeralKeystore() (*Keystore, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("jwt: generate ephemeral seed: %w", err)
	}
	return fromSeed(seed), nil
}

func fromSeed(seed []byte) *Keystore {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Keystore{
		kid:  kidFor(pub),
		priv: priv,
		pub:  pub,
	}
}

// kidFor deriva un KID estable de la pubkey: misma clave, mismo kid.
func kidFor(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:8])
}

func decodeB64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("invalid base64")
}
