package orders

import (
	"errors"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "PLACED"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPicking        OrderStatus = "PICKING"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// AllStatuses lists every status, in lifecycle order, for filter dropdowns.
var AllStatuses = []OrderStatus{
	StatusPlaced,
	StatusConfirmed,
	StatusPicking,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// transitions is the forward status machine. Cancellation is only possible
// before the order has been picked.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:         {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPicking, StatusCancelled},
	StatusPicking:        {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
}

var (
	// ErrInvalidTransition rejects a status change the machine does not allow.
	ErrInvalidTransition = errors.New("orders: invalid status transition")
	// ErrInsufficientStock rejects a checkout that would oversell a product.
	ErrInsufficientStock = errors.New("orders: insufficient stock")
	// ErrEmptyCart rejects a checkout with nothing in the cart.
	ErrEmptyCart = errors.New("orders: cart is empty")
	// ErrNotAssignable rejects assigning a driver outside CONFIRMED or PICKING.
	ErrNotAssignable = errors.New("orders: order cannot be assigned")
	// ErrNotDriver rejects assigning a delivery to a non-driver account.
	ErrNotDriver = errors.New("orders: assignee is not a driver")
)

// CanTransition reports whether the status machine allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from the current one.
func NextStatuses(from OrderStatus) []OrderStatus {
	return transitions[from]
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s OrderStatus) bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Line is one priced order row, a snapshot of the product at checkout time.
type Line struct {
	ID             int64
	OrderID        int64
	ProductID      int64
	Name           string
	Unit           string
	Quantity       int
	PriceCents     int64
	LineTotalCents int64
}

// Order is one customer order. CustomerName and DriverName are join
// products for the admin console; they are empty on customer reads.
type Order struct {
	ID            int64
	Reference     string
	AccountID     int64
	CustomerName  string
	CustomerEmail string
	DriverID      *int64
	DriverName    string
	Address       string
	Status        OrderStatus
	Note          string
	TotalCents    int64
	PlacedAt      time.Time
	UpdatedAt     time.Time
	Lines         []Line
}

// CanCancel reports whether the customer may still cancel the order.
// Customers only get the window before the shop confirms.
func (o *Order) CanCancel() bool {
	return o.Status == StatusPlaced
}
