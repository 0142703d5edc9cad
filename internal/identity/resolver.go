// Package identity resuelve perfiles verificados de providers externos a
// cuentas locales con upsert idempotente.
//
// El localId es determinístico (provider + ":" + providerUserId), así logins
// repetidos del mismo usuario externo siempre mapean a la misma cuenta sin
// lookups adicionales ni tablas de vinculación.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/provider"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

// LocalID deriva el identificador de cuenta local. Determinístico: la misma
// identidad externa produce siempre el mismo id.
func LocalID(providerName, providerUserID string) string {
	return providerName + ":" + providerUserID
}

// Resolver hace get-or-create de cuentas a partir de perfiles verificados.
type Resolver struct {
	accounts core.AccountStore
	now      func() time.Time
}

func NewResolver(accounts core.AccountStore) *Resolver {
	return &Resolver{accounts: accounts, now: time.Now}
}

// Resolve retorna la cuenta local para el perfil verificado, creándola si no
// existe. En cuentas existentes solo se refresca lastLoginAt: email, nombre y
// avatar son sticky (quedan como en el primer login, el usuario pudo haberlos
// editado después).
func (r *Resolver) Resolve(ctx context.Context, p provider.Provider, vp *provider.VerifiedProfile) (*core.Account, error) {
	if vp == nil || vp.UserID == "" {
		return nil, fmt.Errorf("identity: verified profile without user id: %w", core.ErrInvalid)
	}

	localID := LocalID(p.Name(), vp.UserID)

	acc, err := r.accounts.GetAccount(ctx, localID)
	switch {
	case err == nil:
		if err := r.accounts.TouchLastLogin(ctx, localID, r.now().UTC()); err != nil {
			// Login válido aunque el touch falle; solo queda el log.
			logger.From(ctx).Warn("touch last login failed",
				logger.AccountID(localID),
				logger.Err(err),
			)
		}
		return acc, nil
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("identity: lookup %s: %w", localID, err)
	}

	now := r.now().UTC()
	created := &core.Account{
		LocalID:        localID,
		Provider:       p.Name(),
		ProviderUserID: vp.UserID,
		Email:          vp.Email,
		DisplayName:    p.DefaultDisplayName(vp),
		PhotoURL:       p.DefaultAvatar(vp),
		CreatedAt:      now,
		LastLoginAt:    now,
	}
	if created.Email == "" {
		created.Email = p.DefaultEmail(vp.UserID)
	}

	err = r.accounts.CreateAccount(ctx, created)
	switch {
	case err == nil:
		logger.From(ctx).Info("account created",
			logger.AccountID(localID),
			logger.Provider(p.Name()),
		)
		return created, nil
	case errors.Is(err, core.ErrConflict):
		// Carrera con otro login concurrente: alguien creó la cuenta entre
		// el get y el create. Releer gana.
		acc, err := r.accounts.GetAccount(ctx, localID)
		if err != nil {
			return nil, fmt.Errorf("identity: refetch after conflict %s: %w", localID, err)
		}
		if err := r.accounts.TouchLastLogin(ctx, localID, r.now().UTC()); err != nil {
			logger.From(ctx).Warn("touch last login failed",
				logger.AccountID(localID),
				logger.Err(err),
			)
		}
		return acc, nil
	default:
		return nil, fmt.Errorf("identity: create %s: %w", localID, err)
	}
}
