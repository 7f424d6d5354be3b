package badgerstore

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal/assist-api/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	owner := uuid.New()

	reminders := []*model.Reminder{
		{
			ID:           uuid.New(),
			MedicineName: "Aspirin",
			Time:         "08:00",
			IsActive:     true,
			CreatedAt:    time.Date(2026, 8, 31, 7, 30, 0, 0, time.UTC),
		},
		{
			ID:           uuid.New(),
			MedicineName: "Vitamin D",
			Time:         "21:00",
			IsActive:     false,
			CreatedAt:    time.Date(2026, 8, 31, 7, 31, 0, 0, time.UTC),
		},
	}

	require.NoError(t, store.Save(owner, reminders))

	loaded, err := store.Load(owner)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, reminders[0].ID, loaded[0].ID)
	assert.Equal(t, "Aspirin", loaded[0].MedicineName)
	assert.True(t, loaded[0].IsActive)
	assert.Equal(t, "Vitamin D", loaded[1].MedicineName)
	assert.False(t, loaded[1].IsActive)
}

func TestLoadMissingOwner(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Load(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadCorruptValue(t *testing.T) {
	store := newTestStore(t)
	owner := uuid.New()

	err := store.db.Update(func(tx *badger.Txn) error {
		return tx.Set(ownerKey(owner), []byte("{not json"))
	})
	require.NoError(t, err)

	loaded, err := store.Load(owner)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSaveReplacesCollection(t *testing.T) {
	store := newTestStore(t)
	owner := uuid.New()

	first := []*model.Reminder{
		{ID: uuid.New(), MedicineName: "Aspirin", Time: "08:00", IsActive: true},
		{ID: uuid.New(), MedicineName: "Vitamin D", Time: "09:00", IsActive: true},
	}
	require.NoError(t, store.Save(owner, first))

	second := first[:1]
	require.NoError(t, store.Save(owner, second))

	loaded, err := store.Load(owner)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Aspirin", loaded[0].MedicineName)
}

func TestOwners(t *testing.T) {
	store := newTestStore(t)

	first := uuid.New()
	second := uuid.New()
	require.NoError(t, store.Save(first, []*model.Reminder{
		{ID: uuid.New(), MedicineName: "Aspirin", Time: "08:00", IsActive: true},
	}))
	require.NoError(t, store.Save(second, nil))

	owners, err := store.Owners()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first, second}, owners)
}
