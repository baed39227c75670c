package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/greenbasket/greenbasket/internal/cart"
	jobmetrics "github.com/greenbasket/greenbasket/internal/jobs"
)

// Handlers bundles the dependencies the task handlers need.
type Handlers struct {
	logger  *slog.Logger
	mailer  Mailer
	carts   *cart.Store
	metrics *jobmetrics.Metrics
	printer *message.Printer
}

// NewHandlers constructs the handler set.
func NewHandlers(logger *slog.Logger, mailer Mailer, carts *cart.Store, metrics *jobmetrics.Metrics) *Handlers {
	return &Handlers{
		logger:  logger,
		mailer:  mailer,
		carts:   carts,
		metrics: metrics,
		printer: message.NewPrinter(language.English),
	}
}

// HandleOrderPlaced sends the order confirmation mail.
func (h *Handlers) HandleOrderPlaced(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeOrderPlaced)
	var payload OrderPlacedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(fmt.Errorf("order placed payload: %w", asynq.SkipRetry))
	}
	body := fmt.Sprintf(
		"Thanks for your order!\n\nReference: %s\nTotal: %s\n\nWe will email you as it moves through picking and delivery.",
		payload.Reference, h.printer.Sprintf("$%.2f", float64(payload.TotalCents)/100),
	)
	return tracker.End(h.mailer.Send(ctx, payload.To, "Order "+payload.Reference+" received", body))
}

// HandleOrderStatus sends the status change mail.
func (h *Handlers) HandleOrderStatus(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeOrderStatus)
	var payload OrderStatusPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(fmt.Errorf("order status payload: %w", asynq.SkipRetry))
	}
	body := fmt.Sprintf("Your order %s is now %s.", payload.Reference, payload.Status)
	return tracker.End(h.mailer.Send(ctx, payload.To, "Order "+payload.Reference+" update", body))
}

// HandlePasswordReset sends the reset link mail.
func (h *Handlers) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypePasswordReset)
	var payload PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(fmt.Errorf("password reset payload: %w", asynq.SkipRetry))
	}
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset link (valid for a short time): %s\n\nIf you did not ask for this, ignore this mail.",
		payload.Link,
	)
	return tracker.End(h.mailer.Send(ctx, payload.To, "Reset your password", body))
}

// HandleCartSweep reattaches TTLs to cart keys that lost them.
func (h *Handlers) HandleCartSweep(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeCartSweep)
	repaired, err := h.carts.Sweep(ctx)
	if err != nil {
		return tracker.End(err)
	}
	if repaired > 0 {
		h.logger.Info("cart sweep", slog.Int("repaired", repaired))
	}
	return tracker.End(nil)
}
