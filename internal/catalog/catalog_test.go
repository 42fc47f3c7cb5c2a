package catalog

import (
	"context"
	"errors"
	"testing"

	"shiftdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlotStore is an in-memory SlotStore.
type fakeSlotStore struct {
	defs      []models.ShiftDef
	nextID    int64
	failKeys  map[string]error
	listErr   error
	listCalls int
	creates   int
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{nextID: 1, failKeys: map[string]error{}}
}

func (f *fakeSlotStore) ListShiftDefs(ctx context.Context) ([]models.ShiftDef, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.ShiftDef, len(f.defs))
	copy(out, f.defs)
	return out, nil
}

func (f *fakeSlotStore) CreateShiftDef(ctx context.Context, def models.ShiftDef) (*models.ShiftDef, error) {
	f.creates++
	key := SlotKey(def.StartTime, def.EndTime)
	if err, ok := f.failKeys[key]; ok {
		return nil, err
	}
	def.ID = f.nextID
	f.nextID++
	f.defs = append(f.defs, def)
	return &def, nil
}

func TestDesiredKeys(t *testing.T) {
	keys := DesiredKeys()
	require.Len(t, keys, 24)
	assert.Equal(t, "00:00-08:00", keys[0])
	assert.Equal(t, "08:00-16:00", keys[8])
	assert.Equal(t, "16:00-00:00", keys[16])
	assert.Equal(t, "23:00-07:00", keys[23])

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "08:00-16:00", SlotKey("08:00", "16:00"))
	assert.Equal(t, "08:00-16:00", SlotKey("08:00:00", "16:00:00"))
	assert.Equal(t, "09:30-17:30", SlotKey("9:30", "17:30"))
	assert.Equal(t, "23:00-07:00", SlotKey("23:00:15", "07:00:59"))
}

func TestReconcileCreatesMissing(t *testing.T) {
	store := newFakeSlotStore()
	r := NewReconciler(store, nil)

	cat, failed, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Equal(t, 24, store.creates)
	assert.Len(t, cat.IDByKey, 24)
	assert.Len(t, cat.KeyByID, 24)

	for _, key := range DesiredKeys() {
		id, ok := cat.IDByKey[key]
		require.True(t, ok, "missing key %s", key)
		assert.Equal(t, key, cat.KeyByID[id])
	}
}

func TestReconcileIdempotent(t *testing.T) {
	store := newFakeSlotStore()
	r := NewReconciler(store, nil)

	first, _, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	second, failed, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Equal(t, 24, store.creates, "second reconcile must not create duplicates")
	assert.Equal(t, first.IDByKey, second.IDByKey)
}

func TestReconcileMatchesExistingWithSeconds(t *testing.T) {
	store := newFakeSlotStore()
	store.defs = []models.ShiftDef{
		{ID: 42, Name: "day", StartTime: "08:00:00", EndTime: "16:00:00", IsActive: true},
	}
	r := NewReconciler(store, nil)

	cat, _, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	// Existing slot is matched by key, not recreated.
	assert.Equal(t, 23, store.creates)
	assert.Equal(t, int64(42), cat.IDByKey["08:00-16:00"])
}

func TestReconcilePartialFailure(t *testing.T) {
	store := newFakeSlotStore()
	store.failKeys["08:00-16:00"] = errors.New("boom")
	r := NewReconciler(store, nil)

	cat, failed, err := r.Reconcile(context.Background())
	require.NoError(t, err, "partial creation failure must not fail reconcile")
	require.Len(t, failed, 1)
	assert.Equal(t, "08:00-16:00", failed[0].Key)

	_, ok := cat.IDByKey["08:00-16:00"]
	assert.False(t, ok, "failed key must be absent, not dangling")
	assert.Len(t, cat.IDByKey, 23)
}

func TestReconcileListError(t *testing.T) {
	store := newFakeSlotStore()
	store.listErr = errors.New("api down")
	r := NewReconciler(store, nil)

	_, _, err := r.Reconcile(context.Background())
	assert.Error(t, err)
}

func TestReconcileRefetchReflectsServerIDs(t *testing.T) {
	store := newFakeSlotStore()
	r := NewReconciler(store, nil)

	_, _, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	// Initial list, then one refetch after creations.
	assert.Equal(t, 2, store.listCalls)
}
