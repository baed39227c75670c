package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeOrderPlaced confirms a new order to the customer.
	TaskTypeOrderPlaced = "mail:order_placed"
	// TaskTypeOrderStatus notifies the customer of a status change.
	TaskTypeOrderStatus = "mail:order_status"
	// TaskTypePasswordReset delivers a password reset link.
	TaskTypePasswordReset = "mail:password_reset"
	// TaskTypeCartSweep repairs cart keys that lost their expiry.
	TaskTypeCartSweep = "cart:sweep"
)

// OrderPlacedPayload confirms a checkout.
type OrderPlacedPayload struct {
	To         string `json:"to"`
	Reference  string `json:"reference"`
	TotalCents int64  `json:"total_cents"`
}

// OrderStatusPayload announces a status change.
type OrderStatusPayload struct {
	To        string `json:"to"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// PasswordResetPayload carries a reset link.
type PasswordResetPayload struct {
	To   string `json:"to"`
	Link string `json:"link"`
}

// NewOrderPlacedTask constructs an order confirmation task.
func NewOrderPlacedTask(payload OrderPlacedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOrderPlaced, data), nil
}

// NewOrderStatusTask constructs a status notification task.
func NewOrderStatusTask(payload OrderStatusPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOrderStatus, data), nil
}

// NewPasswordResetTask constructs a password reset mail task.
func NewPasswordResetTask(payload PasswordResetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePasswordReset, data), nil
}

// NewCartSweepTask constructs the nightly cart sweep task.
func NewCartSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeCartSweep, nil)
}
