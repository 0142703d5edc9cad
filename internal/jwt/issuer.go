// Package jwt emite las credenciales de sesión locales firmadas con EdDSA.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrSigningUnavailable: el material de firma no está disponible. El caller
// lo mapea a error interno, nunca a rechazo del login.
var ErrSigningUnavailable = errors.New("signing unavailable")

// Issuer firma tokens de sesión con la clave activa del keystore.
type Issuer struct {
	Iss       string // "iss"
	Aud       string // "aud"
	Keys      *Keystore
	AccessTTL time.Duration // TTL del token de sesión (ej: 15m)
}

func NewIssuer(iss, aud string, ks *Keystore, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{
		Iss:       iss,
		Aud:       aud,
		Keys:      ks,
		AccessTTL: ttl,
	}
}

// ActiveKID devuelve el KID activo actual.
func (i *Issuer) ActiveKID() (string, error) {
	if i.Keys == nil {
		return "", ErrSigningUnavailable
	}
	kid, _, _ := i.Keys.Active()
	return kid, nil
}

// Issue emite el token de sesión para una cuenta local. El sub es el localId
// completo (provider:providerUserId); no hay claims custom por ahora.
func (i *Issuer) Issue(localID string) (string, time.Time, error) {
	if i.Keys == nil {
		return "", time.Time{}, ErrSigningUnavailable
	}
	kid, priv, _ := i.Keys.Active()

	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": localID,
		"aud": i.Aud,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %v: %w", err, ErrSigningUnavailable)
	}
	return signed, exp, nil
}

// Keyfunc devuelve un jwt.Keyfunc que valida contra la pubkey activa,
// exigiendo que el kid del token coincida.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if i.Keys == nil {
			return nil, ErrSigningUnavailable
		}
		kid, _, pub := i.Keys.Active()
		if tokenKID, _ := t.Header["kid"].(string); tokenKID != "" && tokenKID != kid {
			return nil, fmt.Errorf("jwt: unknown kid %q", tokenKID)
		}
		return ed25519.PublicKey(pub), nil
	}
}
