package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/catalog"
	"github.com/greenbasket/greenbasket/internal/shared"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour), mr
}

func TestStoreAddAccumulatesQuantity(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "sess-1", 7, 2))
	require.NoError(t, store.Add(ctx, "sess-1", 7, 3))
	require.NoError(t, store.Add(ctx, "sess-1", 9, 1))

	items, err := store.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{7: 5, 9: 1}, items)

	// Writes must leave an expiry on the key.
	assert.Positive(t, mr.TTL("cart:sess-1"))
}

func TestStoreSetQuantityZeroRemovesLine(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "sess-1", 7, 2))
	require.NoError(t, store.SetQuantity(ctx, "sess-1", 7, 0))

	items, err := store.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStoreItemsSkipsGarbageFields(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.HSet("cart:sess-1", "7", "2")
	mr.HSet("cart:sess-1", "not-a-product", "3")
	mr.HSet("cart:sess-1", "9", "zero")

	items, err := store.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{7: 2}, items)
}

func TestStoreCartsAreIsolatedBySession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "sess-a", 7, 1))
	require.NoError(t, store.Add(ctx, "sess-b", 8, 4))
	require.NoError(t, store.Clear(ctx, "sess-a"))

	itemsA, err := store.Items(ctx, "sess-a")
	require.NoError(t, err)
	assert.Empty(t, itemsA)

	itemsB, err := store.Items(ctx, "sess-b")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{8: 4}, itemsB)
}

func TestStoreSweepRepairsMissingTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.HSet("cart:orphan", "7", "2")
	require.NoError(t, store.Add(ctx, "sess-1", 7, 1))

	repaired, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Positive(t, mr.TTL("cart:orphan"))
}

type stubProducts struct {
	byID map[int64]*catalog.Product
}

func (s stubProducts) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func TestServiceLoadDropsRemovedAndArchivedProducts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	svc := NewService(store, stubProducts{byID: map[int64]*catalog.Product{
		1: {ID: 1, Name: "Gala Apples", PriceCents: 399, Active: true},
		2: {ID: 2, Name: "Discontinued Tea", PriceCents: 800, Active: false},
	}})

	require.NoError(t, store.Add(ctx, "sess-1", 1, 3))
	require.NoError(t, store.Add(ctx, "sess-1", 2, 1))
	require.NoError(t, store.Add(ctx, "sess-1", 42, 1)) // deleted product

	contents, err := svc.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, contents.Lines, 1)
	assert.Equal(t, "Gala Apples", contents.Lines[0].Name)
	assert.EqualValues(t, 1197, contents.Lines[0].LineTotalCents)
	assert.EqualValues(t, 1197, contents.TotalCents)
}

func TestServiceAddRejectsArchivedProduct(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	svc := NewService(store, stubProducts{byID: map[int64]*catalog.Product{
		2: {ID: 2, Name: "Discontinued Tea", Active: false},
	}})

	err := svc.Add(ctx, "sess-1", 2, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	items, err := store.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}
