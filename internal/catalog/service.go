package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Service handles catalog business logic. Public listings are served from
// the Redis cache; concurrent misses for the same page collapse into one
// database query.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns one page of products. Admin listings (IncludeAll) bypass the
// cache so the console always sees current stock.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	if req.IncludeAll {
		return s.repo.List(ctx, req)
	}

	if products, total, ok := s.cache.Get(ctx, req); ok {
		return products, total, nil
	}

	key := fmt.Sprintf("%s:%d:%d", req.Category, req.Page, req.PerPage)
	type result struct {
		products []Product
		total    int
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		products, total, err := s.repo.List(ctx, req)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, req, products, total)
		return result{products: products, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	res := v.(result)
	return res.products, res.total, nil
}

// GetBySlug returns one active product for the storefront detail page.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// GetByID returns one product regardless of its active flag.
func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create inserts a product and invalidates cached listings.
func (s *Service) Create(ctx context.Context, p Product) (int64, error) {
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx)
	return id, nil
}

// Update rewrites a product and invalidates cached listings.
func (s *Service) Update(ctx context.Context, p Product) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Archive deactivates a product and invalidates cached listings.
func (s *Service) Archive(ctx context.Context, id int64) error {
	if err := s.repo.Archive(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// ListCategories returns the storefront navigation list, or every category
// for the admin console.
func (s *Service) ListCategories(ctx context.Context, includeAll bool) ([]Category, error) {
	return s.repo.ListCategories(ctx, includeAll)
}

// GetCategoryByID returns one category regardless of its active flag.
func (s *Service) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetCategoryByID(ctx, id)
}

// CreateCategory inserts a category.
func (s *Service) CreateCategory(ctx context.Context, c Category) (int64, error) {
	return s.repo.CreateCategory(ctx, c)
}

// UpdateCategory rewrites a category. A slug rename moves the products along,
// so cached listings keyed by the old slug are dropped.
func (s *Service) UpdateCategory(ctx context.Context, c Category) error {
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// ArchiveCategory removes a category from storefront navigation. Products
// keep their slug and stay reachable through the direct filter path.
func (s *Service) ArchiveCategory(ctx context.Context, id int64) error {
	return s.repo.ArchiveCategory(ctx, id)
}
