// Package provider define la capability polimórfica de login social.
//
// Cada provider (VK, Yandex, futuros) implementa la verificación del access
// token contra su API y los defaults de perfil que el resolver usa cuando el
// provider no entrega un campo. La selección por enum evita caminos de
// código duplicados por provider.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredentials: al request le faltan campos que este provider
	// exige (p.ej. VK necesita UserID). Es un request malformado, no un
	// rechazo del token: nunca se llamó al provider.
	ErrMissingCredentials = errors.New("missing provider credentials")

	// ErrInvalidToken: el provider rechazó o no pudo resolver el token.
	// Es un login denegado, no un fallo transitorio.
	ErrInvalidToken = errors.New("provider rejected token")

	// ErrUnavailable: la llamada remota falló o expiró. Reintenable por el
	// caller; nunca debe tratarse como rechazo del login.
	ErrUnavailable = errors.New("provider unavailable")
)

// Credentials es lo que el cliente presenta para verificar.
// UserID solo lo exige VK (su users.get se consulta por id); Yandex lo ignora.
type Credentials struct {
	UserID      string
	AccessToken string
}

// VerifiedProfile es el perfil normalizado que retorna una verificación
// exitosa. UserID siempre presente; el resto best-effort.
type VerifiedProfile struct {
	UserID    string
	Name      string
	Email     string
	AvatarURL string
}

// Provider es la capability que implementa cada proveedor de identidad.
type Provider interface {
	Name() string

	// Verify llama al provider y retorna el perfil verificado,
	// ErrMissingCredentials, ErrInvalidToken o ErrUnavailable.
	// Sin efectos locales.
	Verify(ctx context.Context, creds Credentials) (*VerifiedProfile, error)

	// Defaults usados por el resolver al crear la cuenta cuando el
	// provider omite el campo.
	DefaultEmail(providerUserID string) string
	DefaultDisplayName(p *VerifiedProfile) string
	DefaultAvatar(p *VerifiedProfile) string
}
