package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabula/internal/provider"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

// fakeAccounts es un AccountStore en memoria con la semántica
// create-if-absent del adapter real.
type fakeAccounts struct {
	accounts map[string]*core.Account

	createCalls int
	touchCalls  int
	touchErr    error

	// conflictOnCreate simula una carrera: el primer CreateAccount retorna
	// ErrConflict y materializa la cuenta como si otro proceso la hubiera
	// creado justo antes.
	conflictOnCreate bool
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]*core.Account)}
}

func (f *fakeAccounts) GetAccount(_ context.Context, localID string) (*core.Account, error) {
	a, ok := f.accounts[localID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) CreateAccount(_ context.Context, a *core.Account) error {
	f.createCalls++
	if f.conflictOnCreate {
		f.conflictOnCreate = false
		other := *a
		other.DisplayName = "Winner Of The Race"
		f.accounts[a.LocalID] = &other
		return core.ErrConflict
	}
	if _, ok := f.accounts[a.LocalID]; ok {
		return core.ErrConflict
	}
	cp := *a
	f.accounts[a.LocalID] = &cp
	return nil
}

func (f *fakeAccounts) TouchLastLogin(_ context.Context, localID string, at time.Time) error {
	f.touchCalls++
	if f.touchErr != nil {
		return f.touchErr
	}
	a, ok := f.accounts[localID]
	if !ok {
		return core.ErrNotFound
	}
	a.LastLoginAt = at
	return nil
}

func (f *fakeAccounts) ListAccountIDs(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func TestLocalID(t *testing.T) {
	assert.Equal(t, "vk:42", LocalID("vk", "42"))
	assert.Equal(t, "yandex:777", LocalID("yandex", "777"))
}

func TestResolve_CreatesAccount(t *testing.T) {
	store := newFakeAccounts()
	r := NewResolver(store)
	p := &stubProvider{name: "vk"}

	acc, err := r.Resolve(context.Background(), p, &provider.VerifiedProfile{
		UserID:    "42",
		Name:      "Anna Ivanova",
		AvatarURL: "https://img.example/42.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "vk:42", acc.LocalID)
	assert.Equal(t, "vk", acc.Provider)
	assert.Equal(t, "42", acc.ProviderUserID)
	assert.Equal(t, "Anna Ivanova", acc.DisplayName)
	assert.Equal(t, "https://img.example/42.jpg", acc.PhotoURL)
	// Sin email del provider se sintetiza el default.
	assert.Equal(t, "42@vk.local", acc.Email)
	assert.Equal(t, 1, store.createCalls)
}

func TestResolve_ExistingAccountIsSticky(t *testing.T) {
	store := newFakeAccounts()
	store.accounts["vk:42"] = &core.Account{
		LocalID:     "vk:42",
		Provider:    "vk",
		Email:       "edited@example.com",
		DisplayName: "Edited Name",
		PhotoURL:    "https://edited.example/a.jpg",
	}
	r := NewResolver(store)
	p := &stubProvider{name: "vk"}

	acc, err := r.Resolve(context.Background(), p, &provider.VerifiedProfile{
		UserID:    "42",
		Name:      "Fresh Provider Name",
		AvatarURL: "https://fresh.example/b.jpg",
	})
	require.NoError(t, err)
	// Los campos del perfil quedan como estaban; solo se toca lastLoginAt.
	assert.Equal(t, "Edited Name", acc.DisplayName)
	assert.Equal(t, "edited@example.com", acc.Email)
	assert.Equal(t, "https://edited.example/a.jpg", acc.PhotoURL)
	assert.Equal(t, 0, store.createCalls)
	assert.Equal(t, 1, store.touchCalls)
	assert.False(t, store.accounts["vk:42"].LastLoginAt.IsZero())
}

func TestResolve_ConflictRefetches(t *testing.T) {
	store := newFakeAccounts()
	store.conflictOnCreate = true
	r := NewResolver(store)
	p := &stubProvider{name: "yandex"}

	acc, err := r.Resolve(context.Background(), p, &provider.VerifiedProfile{UserID: "777", Name: "Loser"})
	require.NoError(t, err)
	assert.Equal(t, "Winner Of The Race", acc.DisplayName)
	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 1, store.touchCalls)
}

func TestResolve_TouchFailureDoesNotBlockLogin(t *testing.T) {
	store := newFakeAccounts()
	store.accounts["vk:42"] = &core.Account{LocalID: "vk:42"}
	store.touchErr = core.ErrUnavailable
	r := NewResolver(store)

	acc, err := r.Resolve(context.Background(), &stubProvider{name: "vk"}, &provider.VerifiedProfile{UserID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "vk:42", acc.LocalID)
}

func TestResolve_EmptyProfile(t *testing.T) {
	r := NewResolver(newFakeAccounts())

	_, err := r.Resolve(context.Background(), &stubProvider{name: "vk"}, nil)
	require.ErrorIs(t, err, core.ErrInvalid)

	_, err = r.Resolve(context.Background(), &stubProvider{name: "vk"}, &provider.VerifiedProfile{})
	require.ErrorIs(t, err, core.ErrInvalid)
}

// stubProvider implementa provider.Provider con los defaults mínimos.
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Verify(context.Context, provider.Credentials) (*provider.VerifiedProfile, error) {
	panic("not used by resolver tests")
}

func (s *stubProvider) DefaultEmail(uid string) string {
	return uid + "@" + s.name + ".local"
}

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
