package jwt

import (
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed() string {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return base64.StdEncoding.EncodeToString(seed)
}

func TestKeystoreFromSeed(t *testing.T) {
	ks, err := KeystoreFromSeed(testSeed())
	require.NoError(t, err)

	kid, priv, pub := ks.Active()
	assert.Len(t, kid, 16)
	assert.Len(t, priv, ed25519.PrivateKeySize)
	assert.Len(t, pub, ed25519.PublicKeySize)

	// Misma seed, mismo kid.
	ks2, err := KeystoreFromSeed(testSeed())
	require.NoError(t, err)
	kid2, _, _ := ks2.Active()
	assert.Equal(t, kid, kid2)
}

func TestKeystoreFromSeed_URLSafeNoPadding(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 0xfb
	encoded := base64.RawURLEncoding.EncodeToString(seed)

	_, err := KeystoreFromSeed(encoded)
	require.NoError(t, err)
}

func TestKeystoreFromSeed_Invalid(t *testing.T) {
	_, err := KeystoreFromSeed("ñ not base64 ñ")
	require.Error(t, err)

	_, err = KeystoreFromSeed(base64.StdEncoding.EncodeToString([]byte("short")))
	require.Error(t, err)
}

func TestKeystoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.key")
	require.NoError(t, os.WriteFile(path, []byte(testSeed()+"\n"), 0o600))

	ks, err := KeystoreFromFile(path)
	require.NoError(t, err)
	kid, _, _ := ks.Active()
	assert.NotEmpty(t, kid)

	_, err = KeystoreFromFile(filepath.Join(t.TempDir(), "missing.key"))
	require.Error(t, err)
}

func TestIssue_RoundTrip(t *testing.T) {
	ks, err := KeystoreFromSeed(testSeed())
	require.NoError(t, err)
	iss := NewIssuer("https://fabula.example", "fabula-app", ks, 15*time.Minute)

	signed, exp, err := iss.Issue("vk:42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	tok, err := jwtv5.Parse(signed, iss.Keyfunc(),
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer("https://fabula.example"),
		jwtv5.WithAudience("fabula-app"),
	)
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims := tok.Claims.(jwtv5.MapClaims)
	assert.Equal(t, "vk:42", claims["sub"])

	kid, _, _ := ks.Active()
	assert.Equal(t, kid, tok.Header["kid"])
	assert.Equal(t, "JWT", tok.Header["typ"])
}

func TestIssue_DefaultTTL(t *testing.T) {
	ks, err := EphemeralKeystore()
	require.NoError(t, err)

	iss := NewIssuer("https://fabula.example", "fabula-app", ks, 0)
	assert.Equal(t, 15*time.Minute, iss.AccessTTL)
}

func TestIssue_NoKeystore(t *testing.T) {
	iss := NewIssuer("https://fabula.example", "fabula-app", nil, time.Minute)

	_, _, err := iss.Issue("vk:42")
	require.ErrorIs(t, err, ErrSigningUnavailable)

	_, err = iss.ActiveKID()
	require.ErrorIs(t, err, ErrSigningUnavailable)
}

func TestKeyfunc_RejectsForeignKID(t *testing.T) {
	ks, err := KeystoreFromSeed(testSeed())
	require.NoError(t, err)
	iss := NewIssuer("https://fabula.example", "fabula-app", ks, time.Minute)

	other, err := EphemeralKeystore()
	require.NoError(t, err)
	foreign := NewIssuer("https://fabula.example", "fabula-app", other, time.Minute)

	signed, _, err := foreign.Issue("vk:42")
	require.NoError(t, err)

	_, err = jwtv5.Parse(signed, iss.Keyfunc(), jwtv5.WithValidMethods([]string{"EdDSA"}))
	require.Error(t, err)
}
