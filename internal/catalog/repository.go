package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/greenbasket/internal/platform/db"
	"github.com/greenbasket/greenbasket/internal/shared"
)

// ErrSlugTaken indicates a slug collision on a product or category.
var ErrSlugTaken = errors.New("slug already in use")

// Repository defines persistence operations for the catalog.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]Product, int, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, p Product) error
	Archive(ctx context.Context, id int64) error

	ListCategories(ctx context.Context, includeAll bool) ([]Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, c Category) (int64, error)
	UpdateCategory(ctx context.Context, c Category) error
	ArchiveCategory(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, slug, COALESCE(category, ''), name, COALESCE(description, ''), unit, price_cents, stock_qty, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Category, &p.Name, &p.Description, &p.Unit, &p.PriceCents, &p.StockQty, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if !req.IncludeAll {
		conditions = append(conditions, "active")
	}
	if req.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, req.Category)
		argPos++
	}

	where := ""
	for i, cond := range conditions {
		if i == 0 {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY name LIMIT $%d OFFSET $%d", productColumns, where, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var prod Product
		if err := rows.Scan(&prod.ID, &prod.Slug, &prod.Category, &prod.Name, &prod.Description, &prod.Unit, &prod.PriceCents, &prod.StockQty, &prod.Active, &prod.CreatedAt, &prod.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, prod)
	}
	return products, total, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE slug = $1 AND active", productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, slug))
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	const query = `
		INSERT INTO products (slug, category, name, description, unit, price_cents, stock_qty, active, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, $7, true, now(), now())
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, p.Slug, p.Category, p.Name, p.Description, p.Unit, p.PriceCents, p.StockQty).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrSlugTaken
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, p Product) error {
	const query = `
		UPDATE products
		SET slug = $2, category = NULLIF($3, ''), name = $4, description = NULLIF($5, ''),
		    unit = $6, price_cents = $7, stock_qty = $8, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, p.ID, p.Slug, p.Category, p.Name, p.Description, p.Unit, p.PriceCents, p.StockQty)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlugTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Archive(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const categoryColumns = `id, slug, name, COALESCE(description, ''), active, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListCategories(ctx context.Context, includeAll bool) ([]Category, error) {
	where := " WHERE active"
	if includeAll {
		where = ""
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf("SELECT %s FROM categories%s ORDER BY name", categoryColumns, where))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	query := fmt.Sprintf("SELECT %s FROM categories WHERE id = $1", categoryColumns)
	return scanCategory(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) CreateCategory(ctx context.Context, c Category) (int64, error) {
	const query = `
		INSERT INTO categories (slug, name, description, active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), true, now(), now())
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, c.Slug, c.Name, c.Description).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrSlugTaken
		}
		return 0, err
	}
	return id, nil
}

// UpdateCategory rewrites a category. A slug rename carries the products over
// to the new slug in the same transaction so the storefront filter never
// points at an orphaned value.
func (r *repository) UpdateCategory(ctx context.Context, c Category) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var oldSlug string
		err := tx.QueryRow(ctx, `SELECT slug FROM categories WHERE id = $1 FOR UPDATE`, c.ID).Scan(&oldSlug)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}

		const query = `
			UPDATE categories
			SET slug = $2, name = $3, description = NULLIF($4, ''), updated_at = now()
			WHERE id = $1`
		if _, err := tx.Exec(ctx, query, c.ID, c.Slug, c.Name, c.Description); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrSlugTaken
			}
			return err
		}

		if oldSlug != c.Slug {
			if _, err := tx.Exec(ctx, `UPDATE products SET category = $2, updated_at = now() WHERE category = $1`, oldSlug, c.Slug); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) ArchiveCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
