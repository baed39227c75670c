package dashboard_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/dashboard"
	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
	_ "github.com/greenbasket/greenbasket/testing"
)

type stubOrderSource struct {
	counts map[orders.OrderStatus]int
	runs   []orders.Order
	recent []orders.Order
}

func (s *stubOrderSource) StatusCounts(ctx context.Context) (map[orders.OrderStatus]int, error) {
	return s.counts, nil
}

func (s *stubOrderSource) ListActiveByDriver(ctx context.Context, driverID int64) ([]orders.Order, error) {
	return s.runs, nil
}

func (s *stubOrderSource) ListByAccount(ctx context.Context, accountID int64) ([]orders.Order, error) {
	return s.recent, nil
}

func newDashboard(t *testing.T, source dashboard.OrderSource) (*dashboard.Handler, *shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return dashboard.NewHandler(logger, source, templates, shared.NewCSRFManager("csrfsecret")), sessions, mr
}

func TestShowRendersRecentOrdersForShopper(t *testing.T) {
	source := &stubOrderSource{recent: []orders.Order{
		{ID: 1, Reference: "GB-AAAA1111", Status: orders.StatusPlaced, TotalCents: 1299},
	}}
	handler, sessions, _ := newDashboard(t, source)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetAuth("tok-user", shared.UserSnapshot{ID: 4, Name: "Sam", Role: shared.RoleUser})
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.Show(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "GB-AAAA1111")
}

func TestShowRedirectsWhenSnapshotMissing(t *testing.T) {
	handler, sessions, mr := newDashboard(t, &stubOrderSource{})

	// A payload written with a token but no user field unmarshals cleanly;
	// the handler must not trust the snapshot to be there.
	require.NoError(t, mr.Set("session:orphan", `{"token":"tok-x"}`))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "orphan"})
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
	require.Nil(t, sess.User())
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.Show(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
}
