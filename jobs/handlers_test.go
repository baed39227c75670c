package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/cart"
)

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func newTestHandlers(t *testing.T) (*Handlers, *recordingMailer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mailer := &recordingMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := NewHandlers(logger, mailer, cart.NewStore(client, time.Hour), nil)
	return handlers, mailer, mr
}

func TestHandleOrderPlacedSendsConfirmation(t *testing.T) {
	handlers, mailer, _ := newTestHandlers(t)

	task, err := NewOrderPlacedTask(OrderPlacedPayload{
		To: "shopper@example.com", Reference: "GB-TEST1234", TotalCents: 1297,
	})
	require.NoError(t, err)

	require.NoError(t, handlers.HandleOrderPlaced(context.Background(), task))
	assert.Equal(t, []string{"shopper@example.com|Order GB-TEST1234 received"}, mailer.sent)
}

func TestHandleOrderStatusSkipsRetryOnGarbage(t *testing.T) {
	handlers, mailer, _ := newTestHandlers(t)

	task := asynq.NewTask(TaskTypeOrderStatus, []byte("{not json"))
	err := handlers.HandleOrderStatus(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, mailer.sent)
}

func TestHandlePasswordResetSendsLink(t *testing.T) {
	handlers, mailer, _ := newTestHandlers(t)

	task, err := NewPasswordResetTask(PasswordResetPayload{
		To: "shopper@example.com", Link: "http://test.local/reset-password?token=abc",
	})
	require.NoError(t, err)

	require.NoError(t, handlers.HandlePasswordReset(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "shopper@example.com|Reset your password", mailer.sent[0])
}

func TestHandleCartSweepRepairsOrphanedCarts(t *testing.T) {
	handlers, _, mr := newTestHandlers(t)

	mr.HSet("cart:orphan", "7", "2")

	require.NoError(t, handlers.HandleCartSweep(context.Background(), NewCartSweepTask()))
	assert.Positive(t, mr.TTL("cart:orphan"))
}
