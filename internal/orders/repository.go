package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/greenbasket/internal/platform/db"
	"github.com/greenbasket/greenbasket/internal/shared"
)

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetForAccount(ctx context.Context, id, accountID int64) (*Order, error)
	ListByAccount(ctx context.Context, accountID int64) ([]Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	ListActiveByDriver(ctx context.Context, driverID int64) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to OrderStatus, note string) error
	AssignDriver(ctx context.Context, id, driverID int64) error
	StatusCounts(ctx context.Context) (map[OrderStatus]int, error)
	AccountRole(ctx context.Context, accountID int64) (shared.Role, error)
}

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status OrderStatus
	Limit  int
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orderColumns = `
	o.id, o.reference, o.account_id, a.name, a.email,
	o.driver_id, COALESCE(d.name, ''),
	o.address, o.status, COALESCE(o.note, ''), o.total_cents, o.placed_at, o.updated_at`

const orderJoins = `
	FROM orders o
	JOIN accounts a ON a.id = o.account_id
	LEFT JOIN accounts d ON d.id = o.driver_id`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Reference, &o.AccountID, &o.CustomerName, &o.CustomerEmail,
		&o.DriverID, &o.DriverName,
		&o.Address, &o.Status, &o.Note, &o.TotalCents, &o.PlacedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Create inserts the order, its lines, and decrements stock, all in one
// transaction. A product without enough stock aborts the whole checkout
// with ErrInsufficientStock.
func (r *PGRepository) Create(ctx context.Context, order *Order) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, line := range order.Lines {
			tag, err := tx.Exec(ctx, `
				UPDATE products
				SET stock_qty = stock_qty - $2, updated_at = now()
				WHERE id = $1 AND active AND stock_qty >= $2`,
				line.ProductID, line.Quantity,
			)
			if err != nil {
				return fmt.Errorf("orders: reserve stock for product %d: %w", line.ProductID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, line.ProductID)
			}
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO orders (reference, account_id, address, status, total_cents, placed_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			RETURNING id, placed_at, updated_at`,
			order.Reference, order.AccountID, order.Address, order.Status, order.TotalCents,
		).Scan(&order.ID, &order.PlacedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("orders: insert order: %w", err)
		}

		for i := range order.Lines {
			line := &order.Lines[i]
			line.OrderID = order.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO order_lines (order_id, product_id, name, unit, quantity, price_cents, line_total_cents)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id`,
				line.OrderID, line.ProductID, line.Name, line.Unit, line.Quantity, line.PriceCents, line.LineTotalCents,
			).Scan(&line.ID)
			if err != nil {
				return fmt.Errorf("orders: insert line: %w", err)
			}
		}
		return nil
	})
}

// GetByID fetches one order with its lines.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	query := `SELECT` + orderColumns + orderJoins + ` WHERE o.id = $1`
	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetForAccount fetches one order only if it belongs to the account.
func (r *PGRepository) GetForAccount(ctx context.Context, id, accountID int64) (*Order, error) {
	query := `SELECT` + orderColumns + orderJoins + ` WHERE o.id = $1 AND o.account_id = $2`
	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, accountID))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByAccount returns the customer's orders, newest first, without lines.
func (r *PGRepository) ListByAccount(ctx context.Context, accountID int64) ([]Order, error) {
	query := `SELECT` + orderColumns + orderJoins + ` WHERE o.account_id = $1 ORDER BY o.placed_at DESC`
	return r.queryOrders(ctx, query, accountID)
}

// List returns orders for the admin console, optionally filtered by status.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	query := `SELECT` + orderColumns + orderJoins
	args := make([]any, 0, 2)
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` WHERE o.status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY o.placed_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	return r.queryOrders(ctx, query, args...)
}

// ListActiveByDriver returns the driver's undelivered assignments with
// lines, oldest first, as the run sheet.
func (r *PGRepository) ListActiveByDriver(ctx context.Context, driverID int64) ([]Order, error) {
	query := `SELECT` + orderColumns + orderJoins + `
		WHERE o.driver_id = $1 AND o.status IN ($2, $3, $4)
		ORDER BY o.placed_at ASC`
	orders, err := r.queryOrders(ctx, query, driverID, StatusConfirmed, StatusPicking, StatusOutForDelivery)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus moves the order from -> to. The previous status is part of
// the predicate so concurrent updates cannot skip a step.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, from, to OrderStatus, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $3, note = NULLIF($4, ''), updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, from, to, note,
	)
	if err != nil {
		return fmt.Errorf("orders: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// AssignDriver attaches a driver while the order is still in the warehouse.
func (r *PGRepository) AssignDriver(ctx context.Context, id, driverID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET driver_id = $2, updated_at = now()
		WHERE id = $1 AND status IN ($3, $4)`,
		id, driverID, StatusConfirmed, StatusPicking,
	)
	if err != nil {
		return fmt.Errorf("orders: assign driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAssignable
	}
	return nil
}

// StatusCounts aggregates orders per status for the admin dashboard.
func (r *PGRepository) StatusCounts(ctx context.Context) (map[OrderStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("orders: status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[OrderStatus]int)
	for rows.Next() {
		var status OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// AccountRole returns the role of an account, for assignment checks.
func (r *PGRepository) AccountRole(ctx context.Context, accountID int64) (shared.Role, error) {
	var role shared.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1 AND is_active`, accountID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

func (r *PGRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID, &o.Reference, &o.AccountID, &o.CustomerName, &o.CustomerEmail,
			&o.DriverID, &o.DriverName,
			&o.Address, &o.Status, &o.Note, &o.TotalCents, &o.PlacedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (r *PGRepository) loadLines(ctx context.Context, order *Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, name, unit, quantity, price_cents, line_total_cents
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id`,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("orders: load lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line Line
		err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.Name, &line.Unit,
			&line.Quantity, &line.PriceCents, &line.LineTotalCents,
		)
		if err != nil {
			return err
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}
