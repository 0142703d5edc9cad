package decay

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabula/internal/store/core"
)

type fakeStore struct {
	mu       sync.Mutex
	ids      []string
	children map[string][]core.ChildProfile
	applied  map[string]map[string]core.PetStats

	listErr   error
	updateErr map[string]error // por accountID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		children:  make(map[string][]core.ChildProfile),
		applied:   make(map[string]map[string]core.PetStats),
		updateErr: make(map[string]error),
	}
}

func (f *fakeStore) ListAccountIDs(_ context.Context, afterID string, limit int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]string, 0, limit)
	for _, id := range f.ids {
		if id > afterID {
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListChildren(_ context.Context, accountID string) ([]core.ChildProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.children[accountID], nil
}

func (f *fakeStore) UpdatePetStats(_ context.Context, accountID string, stats map[string]core.PetStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[accountID]; err != nil {
		return err
	}
	f.applied[accountID] = stats
	return nil
}

func (f *fakeStore) addAccount(id string, children ...core.ChildProfile) {
	f.ids = append(f.ids, id)
	sort.Strings(f.ids)
	f.children[id] = children
}

func TestRun_LowersAllStats(t *testing.T) {
	store := newFakeStore()
	store.addAccount("vk:1",
		core.ChildProfile{AccountID: "vk:1", ChildID: "c1", PetStats: core.PetStats{Happiness: 50, Energy: 50, Knowledge: 50}},
		core.ChildProfile{AccountID: "vk:1", ChildID: "c2", PetStats: core.PetStats{Happiness: 3, Energy: 7, Knowledge: 1}},
	)

	rep, err := New(store, 2, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Accounts)
	assert.Equal(t, 0, rep.AccountsFailed)
	assert.Equal(t, 2, rep.ChildrenUpdated)

	got := store.applied["vk:1"]
	require.Len(t, got, 2)
	assert.Equal(t, core.PetStats{Happiness: 45, Energy: 40, Knowledge: 48}, got["c1"])
	// Piso en cero, nunca negativo.
	assert.Equal(t, core.PetStats{Happiness: 0, Energy: 0, Knowledge: 0}, got["c2"])
}

func TestRun_NormalizesOutOfRangeStats(t *testing.T) {
	store := newFakeStore()
	store.addAccount("vk:1",
		core.ChildProfile{AccountID: "vk:1", ChildID: "c1", PetStats: core.PetStats{Happiness: 300, Energy: -5, Knowledge: 100}},
	)

	_, err := New(store, 1, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.PetStats{Happiness: 95, Energy: 0, Knowledge: 98}, store.applied["vk:1"]["c1"])
}

func TestRun_PaginatesAllAccounts(t *testing.T) {
	store := newFakeStore()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		store.addAccount("vk:"+id, core.ChildProfile{AccountID: "vk:" + id, ChildID: "c", PetStats: core.DefaultPetStats()})
	}

	rep, err := New(store, 3, 2).Run(context.Background()) // pageSize < total
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Accounts)
	assert.Equal(t, 5, rep.ChildrenUpdated)
	assert.Len(t, store.applied, 5)
}

func TestRun_IsolatesAccountFailures(t *testing.T) {
	store := newFakeStore()
	store.addAccount("vk:1", core.ChildProfile{AccountID: "vk:1", ChildID: "c", PetStats: core.DefaultPetStats()})
	store.addAccount("vk:2", core.ChildProfile{AccountID: "vk:2", ChildID: "c", PetStats: core.DefaultPetStats()})
	store.addAccount("vk:3", core.ChildProfile{AccountID: "vk:3", ChildID: "c", PetStats: core.DefaultPetStats()})
	store.updateErr["vk:2"] = core.ErrUnavailable

	rep, err := New(store, 1, 10).Run(context.Background())
	require.NoError(t, err, "per-account failures must not abort the run")
	assert.Equal(t, 3, rep.Accounts)
	assert.Equal(t, 1, rep.AccountsFailed)
	assert.Equal(t, 2, rep.ChildrenUpdated)
	assert.Equal(t, 1, rep.ChildrenFailed)
	assert.Contains(t, store.applied, "vk:1")
	assert.Contains(t, store.applied, "vk:3")
}

// Los perfiles se cuentan en unidades de perfil también al fallar: un batch
// de tres que no se escribe son tres perfiles fallados, no "una falla".
func TestRun_CountsFailedChildrenPerProfile(t *testing.T) {
	store := newFakeStore()
	store.addAccount("vk:1",
		core.ChildProfile{AccountID: "vk:1", ChildID: "c1", PetStats: core.DefaultPetStats()},
		core.ChildProfile{AccountID: "vk:1", ChildID: "c2", PetStats: core.DefaultPetStats()},
		core.ChildProfile{AccountID: "vk:1", ChildID: "c3", PetStats: core.DefaultPetStats()},
	)
	store.updateErr["vk:1"] = core.ErrUnavailable

	rep, err := New(store, 1, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.AccountsFailed)
	assert.Equal(t, 3, rep.ChildrenFailed)
	assert.Zero(t, rep.ChildrenUpdated)
}

func TestRun_AccountWithoutChildren(t *testing.T) {
	store := newFakeStore()
	store.addAccount("vk:1")

	rep, err := New(store, 1, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Accounts)
	assert.Equal(t, 0, rep.ChildrenUpdated)
	assert.NotContains(t, store.applied, "vk:1", "no batch write for empty accounts")
}

func TestRun_ListFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.listErr = core.ErrUnavailable

	_, err := New(store, 1, 10).Run(context.Background())
	require.ErrorIs(t, err, core.ErrUnavailable)
}

func TestRun_EmptyStore(t *testing.T) {
	rep, err := New(newFakeStore(), 4, 10).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Accounts)
}
