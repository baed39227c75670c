package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket/internal/cart"
	"github.com/greenbasket/greenbasket/internal/shared"
)

// Mailer enqueues order notification mail.
type Mailer interface {
	EnqueueOrderPlaced(ctx context.Context, to, reference string, totalCents int64) error
	EnqueueOrderStatus(ctx context.Context, to, reference, status string) error
}

// PlacedObserver is notified after a successful checkout.
type PlacedObserver func()

// Service handles order business logic around the status machine.
type Service struct {
	repo     Repository
	cart     *cart.Service
	mailer   Mailer
	onPlaced PlacedObserver
}

// NewService builds an order service. mailer and onPlaced may be nil.
func NewService(repo Repository, cartService *cart.Service, mailer Mailer, onPlaced PlacedObserver) *Service {
	return &Service{repo: repo, cart: cartService, mailer: mailer, onPlaced: onPlaced}
}

// Checkout turns the session cart into a PLACED order. Prices come from the
// priced cart snapshot, not the live catalog, so the customer pays what the
// cart page showed. The cart is cleared only after the order commits.
func (s *Service) Checkout(ctx context.Context, user *shared.UserSnapshot, sessionID, address string) (*Order, error) {
	contents, err := s.cart.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if contents.Empty() {
		return nil, ErrEmptyCart
	}

	order := &Order{
		Reference:  newReference(),
		AccountID:  user.ID,
		Address:    address,
		Status:     StatusPlaced,
		TotalCents: contents.TotalCents,
		Lines:      make([]Line, 0, len(contents.Lines)),
	}
	for _, line := range contents.Lines {
		order.Lines = append(order.Lines, Line{
			ProductID:      line.ProductID,
			Name:           line.Name,
			Unit:           line.Unit,
			Quantity:       line.Quantity,
			PriceCents:     line.PriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	// The order is committed at this point; a cart that fails to clear is
	// an annoyance, not a checkout failure.
	_ = s.cart.Clear(ctx, sessionID)

	if s.mailer != nil {
		_ = s.mailer.EnqueueOrderPlaced(ctx, user.Email, order.Reference, order.TotalCents)
	}
	if s.onPlaced != nil {
		s.onPlaced()
	}
	return order, nil
}

// GetForAccount returns one of the customer's own orders.
func (s *Service) GetForAccount(ctx context.Context, id, accountID int64) (*Order, error) {
	return s.repo.GetForAccount(ctx, id, accountID)
}

// ListByAccount returns the customer's order history.
func (s *Service) ListByAccount(ctx context.Context, accountID int64) ([]Order, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// Cancel lets the customer back out of an order that has not been
// confirmed yet.
func (s *Service) Cancel(ctx context.Context, id, accountID int64) error {
	order, err := s.repo.GetForAccount(ctx, id, accountID)
	if err != nil {
		return err
	}
	if !order.CanCancel() {
		return ErrInvalidTransition
	}
	return s.repo.UpdateStatus(ctx, order.ID, order.Status, StatusCancelled, "")
}

// Get returns one order regardless of owner, for the admin console.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns orders for the admin console.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

// StatusCounts aggregates orders per status.
func (s *Service) StatusCounts(ctx context.Context) (map[OrderStatus]int, error) {
	return s.repo.StatusCounts(ctx)
}

// UpdateStatus moves an order along the status machine and notifies the
// customer.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to OrderStatus, note string) error {
	if !ValidStatus(to) {
		return ErrInvalidTransition
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(order.Status, to) {
		return ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, order.Status, to, note); err != nil {
		return err
	}
	if s.mailer != nil {
		_ = s.mailer.EnqueueOrderStatus(ctx, order.CustomerEmail, order.Reference, string(to))
	}
	return nil
}

// AssignDriver attaches a driver account to an order awaiting dispatch.
func (s *Service) AssignDriver(ctx context.Context, id, driverID int64) error {
	role, err := s.repo.AccountRole(ctx, driverID)
	if err != nil {
		return err
	}
	if role != shared.RoleDriver {
		return ErrNotDriver
	}
	return s.repo.AssignDriver(ctx, id, driverID)
}

// ListActiveByDriver returns the driver's run sheet.
func (s *Service) ListActiveByDriver(ctx context.Context, driverID int64) ([]Order, error) {
	return s.repo.ListActiveByDriver(ctx, driverID)
}

// CompleteDelivery is the one transition drivers may perform on their own
// assignments: OUT_FOR_DELIVERY to DELIVERED.
func (s *Service) CompleteDelivery(ctx context.Context, id, driverID int64, note string) error {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.DriverID == nil || *order.DriverID != driverID {
		return shared.ErrNotFound
	}
	if order.Status != StatusOutForDelivery {
		return ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, StatusOutForDelivery, StatusDelivered, note); err != nil {
		return err
	}
	if s.mailer != nil {
		_ = s.mailer.EnqueueOrderStatus(ctx, order.CustomerEmail, order.Reference, string(StatusDelivered))
	}
	return nil
}

func newReference() string {
	return fmt.Sprintf("GB-%s", strings.ToUpper(uuid.NewString()[:8]))
}
