package delivery_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/delivery"
	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
	_ "github.com/greenbasket/greenbasket/testing"
)

type stubRunSheet struct {
	orders    []orders.Order
	completed []int64
	err       error
}

func (s *stubRunSheet) ListActiveByDriver(ctx context.Context, driverID int64) ([]orders.Order, error) {
	return s.orders, nil
}

func (s *stubRunSheet) CompleteDelivery(ctx context.Context, id, driverID int64, note string) error {
	if s.err != nil {
		return s.err
	}
	s.completed = append(s.completed, id)
	return nil
}

func newDriverRouter(t *testing.T, runSheet delivery.RunSheet) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := delivery.NewHandler(logger, runSheet, templates, shared.NewCSRFManager("csrfsecret"))
	r := chi.NewRouter()
	r.Route("/driver", handler.MountRoutes)
	return r, sessions
}

func driverRequest(t *testing.T, sessions *shared.SessionManager, req *http.Request) *http.Request {
	t.Helper()
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetAuth("tok-driver", shared.UserSnapshot{ID: 7, Name: "Dana", Role: shared.RoleDriver})
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRunSheetListsActiveAssignments(t *testing.T) {
	runSheet := &stubRunSheet{orders: []orders.Order{
		{ID: 1, Reference: "GB-AAAA1111", Address: "12 Apple Way", Status: orders.StatusOutForDelivery},
		{ID: 2, Reference: "GB-BBBB2222", Address: "9 Pear Lane", Status: orders.StatusPicking},
	}}
	router, sessions := newDriverRouter(t, runSheet)

	req := httptest.NewRequest(http.MethodGet, "/driver/dashboard", nil)
	req = driverRequest(t, sessions, req)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "GB-AAAA1111")
	assert.Contains(t, body, "12 Apple Way")
	// Only the order out for delivery gets the completion form.
	assert.Equal(t, 1, strings.Count(body, "Mark delivered"))
}

func TestCompleteDeliveryRedirectsToRunSheet(t *testing.T) {
	runSheet := &stubRunSheet{}
	router, sessions := newDriverRouter(t, runSheet)

	form := url.Values{}
	form.Set("note", "left at door")
	req := httptest.NewRequest(http.MethodPost, "/driver/orders/1/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = driverRequest(t, sessions, req)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/driver/dashboard", res.Header().Get("Location"))
	assert.Equal(t, []int64{1}, runSheet.completed)
}

func TestCompleteDeliveryForeignAssignmentIsNotFound(t *testing.T) {
	runSheet := &stubRunSheet{err: shared.ErrNotFound}
	router, sessions := newDriverRouter(t, runSheet)

	req := httptest.NewRequest(http.MethodPost, "/driver/orders/1/status", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = driverRequest(t, sessions, req)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Empty(t, runSheet.completed)
}
