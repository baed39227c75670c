package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue. It satisfies the mailer interfaces the
// auth and orders services accept.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueOrderPlaced queues the order confirmation mail.
func (c *Client) EnqueueOrderPlaced(ctx context.Context, to, reference string, totalCents int64) error {
	task, err := NewOrderPlacedTask(OrderPlacedPayload{To: to, Reference: reference, TotalCents: totalCents})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueOrderStatus queues the status change mail.
func (c *Client) EnqueueOrderStatus(ctx context.Context, to, reference, status string) error {
	task, err := NewOrderStatusTask(OrderStatusPayload{To: to, Reference: reference, Status: status})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueuePasswordReset queues the reset link mail.
func (c *Client) EnqueuePasswordReset(ctx context.Context, to, link string) error {
	task, err := NewPasswordResetTask(PasswordResetPayload{To: to, Link: link})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
