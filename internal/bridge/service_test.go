package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabula/internal/identity"
	"github.com/dropDatabas3/fabula/internal/jwt"
	"github.com/dropDatabas3/fabula/internal/provider"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

type stubProvider struct {
	name     string
	verifyFn func(provider.Credentials) (*provider.VerifiedProfile, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Verify(_ context.Context, creds provider.Credentials) (*provider.VerifiedProfile, error) {
	return s.verifyFn(creds)
}

func (s *stubProvider) DefaultEmail(uid string) string { return uid + "@" + s.name + ".local" }

func (s *stubProvider) DefaultDisplayName(vp *provider.VerifiedProfile) string {
	if vp != nil && vp.Name != "" {
		return vp.Name
	}
	return s.name + " user"
}

func (s *stubProvider) DefaultAvatar(vp *provider.VerifiedProfile) string {
	if vp != nil {
		return vp.AvatarURL
	}
	return ""
}

type memAccounts struct {
	accounts  map[string]*core.Account
	createErr error
}

func (m *memAccounts) GetAccount(_ context.Context, id string) (*core.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) CreateAccount(_ context.Context, a *core.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.accounts[a.LocalID]; ok {
		return core.ErrConflict
	}
	m.accounts[a.LocalID] = a
	return nil
}

func (m *memAccounts) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	if a, ok := m.accounts[id]; ok {
		a.LastLoginAt = at
		return nil
	}
	return core.ErrNotFound
}

func (m *memAccounts) ListAccountIDs(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func newTestService(t *testing.T, providers ...provider.Provider) (*Service, *memAccounts) {
	t.Helper()
	reg := provider.NewRegistry()
	for _, p := range providers {
		reg.Register(p)
	}
	store := &memAccounts{accounts: make(map[string]*core.Account)}

	ks, err := jwt.EphemeralKeystore()
	require.NoError(t, err)
	issuer := jwt.NewIssuer("https://fabula.test", "fabula-app", ks, 15*time.Minute)

	return NewService(reg, identity.NewResolver(store), issuer), store
}

func TestExchange_OK(t *testing.T) {
	vk := &stubProvider{
		name: "vk",
		verifyFn: func(creds provider.Credentials) (*provider.VerifiedProfile, error) {
			require.Equal(t, "tok-1", creds.AccessToken)
			return &provider.VerifiedProfile{UserID: "42", Name: "Anna Ivanova", AvatarURL: "https://img/a.jpg"}, nil
		},
	}
	svc, store := newTestService(t, vk)

	res, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42", AccessToken: "tok-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Credential)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), res.ExpiresAt, 5*time.Second)
	assert.Equal(t, "vk:42", res.Profile.LocalID)
	assert.Equal(t, "Anna Ivanova", res.Profile.DisplayName)
	require.Contains(t, store.accounts, "vk:42")
	assert.Equal(t, "42@vk.local", store.accounts["vk:42"].Email)
}

func TestExchange_IsIdempotent(t *testing.T) {
	vk := &stubProvider{
		name: "vk",
		verifyFn: func(provider.Credentials) (*provider.VerifiedProfile, error) {
			return &provider.VerifiedProfile{UserID: "42", Name: "Anna"}, nil
		},
	}
	svc, store := newTestService(t, vk)

	first, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42", AccessToken: "t"})
	require.NoError(t, err)
	second, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42", AccessToken: "t"})
	require.NoError(t, err)

	assert.Equal(t, first.Profile.LocalID, second.Profile.LocalID)
	assert.Len(t, store.accounts, 1)
}

func TestExchange_ClientEmailFillsGap(t *testing.T) {
	vk := &stubProvider{
		name: "vk",
		verifyFn: func(provider.Credentials) (*provider.VerifiedProfile, error) {
			return &provider.VerifiedProfile{UserID: "42"}, nil
		},
	}
	svc, store := newTestService(t, vk)

	_, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42", AccessToken: "t", Email: "anna@mail.ru"})
	require.NoError(t, err)
	assert.Equal(t, "anna@mail.ru", store.accounts["vk:42"].Email)
}

func TestExchange_ProviderEmailWins(t *testing.T) {
	ya := &stubProvider{
		name: "yandex",
		verifyFn: func(provider.Credentials) (*provider.VerifiedProfile, error) {
			return &provider.VerifiedProfile{UserID: "777", Email: "real@yandex.ru"}, nil
		},
	}
	svc, store := newTestService(t, ya)

	_, err := svc.Exchange(context.Background(), Request{Provider: "yandex", AccessToken: "t", Email: "fake@evil.ru"})
	require.NoError(t, err)
	assert.Equal(t, "real@yandex.ru", store.accounts["yandex:777"].Email)
}

func TestExchange_UnknownProvider(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Exchange(context.Background(), Request{Provider: "github", AccessToken: "t"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestExchange_MissingToken(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{name: "vk"})

	_, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

// Campos faltantes que el provider exige (VK pide userId) son un request
// malformado, no un login denegado: deben mapear a ErrInvalidInput.
func TestExchange_MissingProviderFields(t *testing.T) {
	vk := &stubProvider{
		name: "vk",
		verifyFn: func(creds provider.Credentials) (*provider.VerifiedProfile, error) {
			if creds.UserID == "" {
				return nil, provider.ErrMissingCredentials
			}
			return &provider.VerifiedProfile{UserID: creds.UserID}, nil
		},
	}
	svc, store := newTestService(t, vk)

	_, err := svc.Exchange(context.Background(), Request{Provider: "vk", AccessToken: "tok123"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, store.accounts)
}

func TestExchange_InvalidToken(t *testing.T) {
	vk := &stubProvider{
		name: "vk",
		verifyFn: func(provider.Credentials) (*provider.VerifiedProfile, error) {
			return nil, provider.ErrInvalidToken
		},
	}
	svc, store := newTestService(t, vk)

	_, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42", AccessToken: "bad"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, store.accounts, "rejected login must not create accounts")
}

func TestExchange_ProviderDown(t *testing.T) {
	vk := &stubProvider{
		name: "vk",
		verifyFn: func(provider.Credentials) (*provider.VerifiedProfile, error) {
			return nil, provider.ErrUnavailable
		},
	}
	svc, _ := newTestService(t, vk)

	_, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42", AccessToken: "t"})
	require.ErrorIs(t, err, ErrUpstream)
}

func TestExchange_StoreFailure(t *testing.T) {
	vk := &stubProvider{
		name: "vk",
		verifyFn: func(provider.Credentials) (*provider.VerifiedProfile, error) {
			return &provider.VerifiedProfile{UserID: "42"}, nil
		},
	}
	svc, store := newTestService(t, vk)
	store.createErr = core.ErrUnavailable

	_, err := svc.Exchange(context.Background(), Request{Provider: "vk", UserID: "42", AccessToken: "t"})
	require.ErrorIs(t, err, ErrInternal)
}
