package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	Repository
	listCalls atomic.Int64
	products  []Product
}

func (r *countingRepo) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	r.listCalls.Add(1)
	return r.products, len(r.products), nil
}

func (r *countingRepo) Create(ctx context.Context, p Product) (int64, error) { return 1, nil }

func (r *countingRepo) Update(ctx context.Context, p Product) error { return nil }

func newTestService(t *testing.T) (*Service, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &countingRepo{products: []Product{
		{ID: 1, Slug: "gala-apples", Name: "Gala Apples", PriceCents: 399, Active: true},
		{ID: 2, Slug: "whole-milk", Name: "Whole Milk", PriceCents: 250, Active: true},
	}}
	return NewService(repo, NewCache(client, time.Minute)), repo, mr
}

func TestServiceListCachesListingPages(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	req := ListRequest{Page: 1, PerPage: 24}

	products, total, err := svc.List(ctx, req)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2, total)
	assert.EqualValues(t, 1, repo.listCalls.Load())

	// Second read must come from the cache.
	products, total, err = svc.List(ctx, req)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2, total)
	assert.EqualValues(t, 1, repo.listCalls.Load())
}

func TestServiceListAdminBypassesCache(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := svc.List(ctx, ListRequest{IncludeAll: true, PerPage: 200})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, repo.listCalls.Load())
}

func TestServiceWritesInvalidateCache(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()
	req := ListRequest{Page: 1, PerPage: 24}

	_, _, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.True(t, mr.Exists("catalog:list::1:24"))

	_, err = svc.Create(ctx, Product{Slug: "sourdough", Name: "Sourdough"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("catalog:list::1:24"))

	// Next read repopulates from the repository.
	_, _, err = svc.List(ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.listCalls.Load())
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()
	req := ListRequest{Page: 1, PerPage: 24}

	require.NoError(t, mr.Set("catalog:list::1:24", "{not json"))

	products, _, err := svc.List(ctx, req)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.EqualValues(t, 1, repo.listCalls.Load())
}
