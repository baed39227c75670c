package shared_test

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

	"github.com/greenbasket/greenbasket/internal/shared"
	_ "github.com/greenbasket/greenbasket/testing"
)

func newManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func TestLoadWithoutCookieReturnsAnonymousSession(t *testing.T) {
	sm, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.User())
}

func TestAuthRoundTrip(t *testing.T) {
	sm, _ := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetAuth("tok-1", shared.UserSnapshot{ID: 42, Email: "a@b.c", Name: "Ada", Role: shared.RoleUser})

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, again)
	require.NoError(t, err)
	require.True(t, loaded.Authenticated())
	require.NotNil(t, loaded.User())
	assert.Equal(t, int64(42), loaded.User().ID)
	assert.Equal(t, shared.RoleUser, loaded.User().Role)
}

func TestCorruptedPayloadResolvesToAnonymous(t *testing.T) {
	sm, mr := newManager(t)
	require.NoError(t, mr.Set("session:broken-id", "{not json"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "broken-id"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.User())
}

func TestUserHiddenWithoutToken(t *testing.T) {
	sm, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	sess.SetAuth("tok", shared.UserSnapshot{ID: 1, Role: shared.RoleAdmin})
	sess.ClearAuth()
	assert.Nil(t, sess.User())

	// A refresh with no token in place is dropped, never stored half-paired.
	sess.RefreshUser(shared.UserSnapshot{ID: 2, Role: shared.RoleAdmin})
	assert.Nil(t, sess.User())
}

func TestRefreshUserOverwritesSnapshotWholesale(t *testing.T) {
	sm, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	sess.SetAuth("tok", shared.UserSnapshot{ID: 1, Email: "old@x.y", Name: "Old", Role: shared.RoleUser})
	sess.RefreshUser(shared.UserSnapshot{ID: 1, Email: "new@x.y", Role: shared.RoleUser})

	require.NotNil(t, sess.User())
	assert.Equal(t, "new@x.y", sess.User().Email)
	// Fields absent from the new snapshot are gone, not merged.
	assert.Empty(t, sess.User().Name)
	assert.Equal(t, "tok", sess.Token())
}

func TestDestroyClearsStoreAndCookie(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetAuth("tok", shared.UserSnapshot{ID: 1, Role: shared.RoleUser})
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	sm.Destroy(sess)
	res = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	assert.False(t, mr.Exists("session:"+sess.ID))

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestFlashClearedAfterPop(t *testing.T) {
	sm, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "order placed"})
	msg := sess.PopFlash()
	require.NotNil(t, msg)
	assert.Equal(t, "order placed", msg.Message)
	assert.Nil(t, sess.PopFlash())
}
