// Package bridge orquesta el intercambio de tokens: verificar el access
// token contra el provider externo, resolver la cuenta local y emitir la
// credencial de sesión firmada.
//
// El orden es estricto: nada se escribe localmente hasta que el provider
// verificó el token, y la credencial solo se emite tras el upsert exitoso.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/fabula/internal/identity"
	"github.com/dropDatabas3/fabula/internal/jwt"
	"github.com/dropDatabas3/fabula/internal/metrics"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/provider"
)

// Sentinels que el handler HTTP mapea a status codes.
var (
	// ErrInvalidInput: request malformado (provider desconocido, campos
	// faltantes). → 400
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized: el provider rechazó el token. → 401
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstream: el provider externo no está disponible. → 500
	ErrUpstream = errors.New("upstream unavailable")

	// ErrInternal: fallo local (store, firma). → 500
	ErrInternal = errors.New("internal error")
)

// Request es el intercambio pedido por el cliente. Email es opcional: algunos
// providers (VK) no lo entregan y el cliente puede declararlo.
type Request struct {
	Provider    string
	UserID      string
	AccessToken string
	Email       string
}

// Profile es el subset de la cuenta que viaja en la respuesta.
type Profile struct {
	LocalID     string `json:"localId"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// Result es el intercambio exitoso: credencial firmada + perfil local.
type Result struct {
	Credential string    `json:"credential"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Profile    Profile   `json:"profile"`
}

// Service implementa el intercambio token externo → credencial local.
type Service struct {
	providers *provider.Registry
	resolver  *identity.Resolver
	issuer    *jwt.Issuer
}

func NewService(providers *provider.Registry, resolver *identity.Resolver, issuer *jwt.Issuer) *Service {
	return &Service{
		providers: providers,
		resolver:  resolver,
		issuer:    issuer,
	}
}

// Exchange verifica el token contra el provider, hace get-or-create de la
// cuenta local y emite la credencial de sesión.
func (s *Service) Exchange(ctx context.Context, req Request) (*Result, error) {
	log := logger.From(ctx).With(logger.Provider(req.Provider))

	if req.AccessToken == "" {
		metrics.TokenExchanges.WithLabelValues(req.Provider, "invalid").Inc()
		return nil, fmt.Errorf("bridge: missing access token: %w", ErrInvalidInput)
	}

	p, ok := s.providers.Get(req.Provider)
	if !ok {
		metrics.TokenExchanges.WithLabelValues(req.Provider, "invalid").Inc()
		return nil, fmt.Errorf("bridge: unknown provider %q: %w", req.Provider, ErrInvalidInput)
	}

	vp, err := p.Verify(ctx, provider.Credentials{
		UserID:      req.UserID,
		AccessToken: req.AccessToken,
	})
	switch {
	case err == nil:
	case errors.Is(err, provider.ErrMissingCredentials):
		// El provider nunca fue consultado: request malformado, no rechazo.
		metrics.TokenExchanges.WithLabelValues(req.Provider, "invalid").Inc()
		return nil, fmt.Errorf("bridge: verify: %v: %w", err, ErrInvalidInput)
	case errors.Is(err, provider.ErrInvalidToken):
		log.Info("token rejected by provider", logger.Err(err))
		metrics.TokenExchanges.WithLabelValues(req.Provider, "unauthorized").Inc()
		return nil, fmt.Errorf("bridge: verify: %v: %w", err, ErrUnauthorized)
	case errors.Is(err, provider.ErrUnavailable):
		log.Error("provider unavailable", logger.Err(err))
		metrics.TokenExchanges.WithLabelValues(req.Provider, "upstream").Inc()
		return nil, fmt.Errorf("bridge: verify: %v: %w", err, ErrUpstream)
	default:
		log.Error("provider verify failed", logger.Err(err))
		metrics.TokenExchanges.WithLabelValues(req.Provider, "internal").Inc()
		return nil, fmt.Errorf("bridge: verify: %v: %w", err, ErrInternal)
	}

	// El email declarado por el cliente solo rellena lo que el provider no
	// entrega; nunca pisa un email verificado.
	if vp.Email == "" && req.Email != "" {
		vp.Email = req.Email
	}

	acc, err := s.resolver.Resolve(ctx, p, vp)
	if err != nil {
		log.Error("account resolve failed", logger.Err(err))
		metrics.TokenExchanges.WithLabelValues(req.Provider, "internal").Inc()
		return nil, fmt.Errorf("bridge: resolve: %v: %w", err, ErrInternal)
	}

	signed, exp, err := s.issuer.Issue(acc.LocalID)
	if err != nil {
		log.Error("credential signing failed",
			logger.AccountID(acc.LocalID),
			logger.Err(err),
		)
		metrics.TokenExchanges.WithLabelValues(req.Provider, "internal").Inc()
		return nil, fmt.Errorf("bridge: issue credential: %v: %w", err, ErrInternal)
	}

	log.Info("token exchanged", logger.AccountID(acc.LocalID))
	metrics.TokenExchanges.WithLabelValues(req.Provider, "ok").Inc()

	return &Result{
		Credential: signed,
		ExpiresAt:  exp,
		Profile: Profile{
			LocalID:     acc.LocalID,
			DisplayName: acc.DisplayName,
			PhotoURL:    acc.PhotoURL,
		},
	}, nil
}
