package gate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/gate"
	"github.com/greenbasket/greenbasket/internal/shared"
)

func newGateMiddleware(t *testing.T) (*gate.Middleware, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	engine := gate.NewEngine(gate.NewMatcher(gate.DefaultConfig()))
	return gate.NewMiddleware(engine, nil, nil), sessions
}

func serve(t *testing.T, mw *gate.Middleware, sessions *shared.SessionManager, target string, login func(*shared.Session)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	if login != nil {
		login(sess)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("page"))
	})
	mw.Handler(next).ServeHTTP(res, req)
	return res
}

func TestMiddlewareRedirectsAnonymousFromProtectedPath(t *testing.T) {
	mw, sessions := newGateMiddleware(t)
	res := serve(t, mw, sessions, "/admin/orders", nil)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
}

func TestMiddlewarePassesUnwatchedPathThrough(t *testing.T) {
	mw, sessions := newGateMiddleware(t)
	res := serve(t, mw, sessions, "/products/apples", nil)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestMiddlewareAllowsMatchingRole(t *testing.T) {
	mw, sessions := newGateMiddleware(t)
	res := serve(t, mw, sessions, "/user/cart", func(sess *shared.Session) {
		sess.SetAuth("tok", shared.UserSnapshot{ID: 1, Role: shared.RoleUser})
	})
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestMiddlewareRedirectsAuthenticatedFromLogin(t *testing.T) {
	mw, sessions := newGateMiddleware(t)
	res := serve(t, mw, sessions, "/login", func(sess *shared.Session) {
		sess.SetAuth("tok", shared.UserSnapshot{ID: 1, Role: shared.RoleDriver})
	})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard", res.Header().Get("Location"))
}

func TestMiddlewareNormalizesTrailingSlash(t *testing.T) {
	mw, sessions := newGateMiddleware(t)
	res := serve(t, mw, sessions, "/admin/", func(sess *shared.Session) {
		sess.SetAuth("tok", shared.UserSnapshot{ID: 1, Role: shared.RoleUser})
	})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
}
