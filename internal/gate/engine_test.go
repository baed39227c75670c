package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/gate"
	"github.com/greenbasket/greenbasket/internal/shared"
	_ "github.com/greenbasket/greenbasket/testing"
)

// fakeSession satisfies gate.SessionInfo without touching Redis.
type fakeSession struct {
	token string
	user  *shared.UserSnapshot
}

func (f *fakeSession) Token() string { return f.token }

func (f *fakeSession) User() *shared.UserSnapshot {
	if f.token == "" {
		return nil
	}
	return f.user
}

func anonymous() *fakeSession {
	return &fakeSession{}
}

func loggedIn(role shared.Role) *fakeSession {
	return &fakeSession{
		token: "tok-123",
		user:  &shared.UserSnapshot{ID: 7, Email: "someone@example.com", Role: role},
	}
}

func newEngine() *gate.Engine {
	return gate.NewEngine(gate.NewMatcher(gate.DefaultConfig()))
}

func TestAnonymousOnPublicPathsAllowed(t *testing.T) {
	engine := newEngine()
	for _, path := range []string{"/login", "/register", "/forget-password", "/reset-password", "/reset-password/abc123"} {
		verdict := engine.Decide(anonymous(), path)
		assert.True(t, verdict.Allowed(), "path %s", path)
	}
}

func TestAuthenticatedOnPublicPathsRedirectsToDashboard(t *testing.T) {
	engine := newEngine()
	for _, role := range []shared.Role{shared.RoleAdmin, shared.RoleDriver, shared.RoleUser} {
		for _, path := range []string{"/login", "/register", "/forget-password", "/reset-password"} {
			verdict := engine.Decide(loggedIn(role), path)
			require.False(t, verdict.Allowed(), "role %s path %s", role, path)
			assert.Equal(t, gate.DashboardPath, verdict.Target())
		}
	}
}

func TestAnonymousOnProtectedPathsRedirectsToLogin(t *testing.T) {
	engine := newEngine()
	for _, path := range []string{"/admin", "/admin/orders", "/user/cart", "/driver/dashboard", "/dashboard", "/totally/unknown"} {
		verdict := engine.Decide(anonymous(), path)
		require.False(t, verdict.Allowed(), "path %s", path)
		assert.Equal(t, gate.LoginPath, verdict.Target(), "path %s", path)
	}
}

func TestAdminScopeRequiresAdminExactly(t *testing.T) {
	engine := newEngine()
	paths := []string{"/admin", "/admin/products", "/admin/orders/123"}

	for _, path := range paths {
		assert.True(t, engine.Decide(loggedIn(shared.RoleAdmin), path).Allowed(), "admin on %s", path)
	}
	for _, role := range []shared.Role{shared.RoleUser, shared.RoleDriver} {
		for _, path := range paths {
			verdict := engine.Decide(loggedIn(role), path)
			require.False(t, verdict.Allowed(), "role %s path %s", role, path)
			assert.Equal(t, gate.HomePath, verdict.Target())
		}
	}
}

func TestUserScopeAcceptsUserAndAdmin(t *testing.T) {
	engine := newEngine()
	paths := []string{"/user", "/user/cart", "/user/orders/42"}

	for _, role := range []shared.Role{shared.RoleUser, shared.RoleAdmin} {
		for _, path := range paths {
			assert.True(t, engine.Decide(loggedIn(role), path).Allowed(), "role %s path %s", role, path)
		}
	}
	for _, path := range paths {
		verdict := engine.Decide(loggedIn(shared.RoleDriver), path)
		require.False(t, verdict.Allowed(), "driver on %s", path)
		assert.Equal(t, gate.HomePath, verdict.Target())
	}
}

func TestDriverScopeAcceptsDriverAndAdmin(t *testing.T) {
	engine := newEngine()
	paths := []string{"/driver", "/driver/dashboard", "/driver/orders/9"}

	for _, role := range []shared.Role{shared.RoleDriver, shared.RoleAdmin} {
		for _, path := range paths {
			assert.True(t, engine.Decide(loggedIn(role), path).Allowed(), "role %s path %s", role, path)
		}
	}
	for _, path := range paths {
		verdict := engine.Decide(loggedIn(shared.RoleUser), path)
		require.False(t, verdict.Allowed(), "user on %s", path)
		assert.Equal(t, gate.HomePath, verdict.Target())
	}
}

func TestDashboardAcceptsAnyAuthenticatedRole(t *testing.T) {
	engine := newEngine()
	for _, role := range []shared.Role{shared.RoleAdmin, shared.RoleDriver, shared.RoleUser} {
		assert.True(t, engine.Decide(loggedIn(role), "/dashboard").Allowed(), "role %s", role)
	}
}

func TestUnscopedPathsDeniedWhenAuthenticated(t *testing.T) {
	engine := newEngine()
	for _, role := range []shared.Role{shared.RoleAdmin, shared.RoleDriver, shared.RoleUser} {
		verdict := engine.Decide(loggedIn(role), "/not/configured")
		require.False(t, verdict.Allowed(), "role %s", role)
		assert.Equal(t, gate.HomePath, verdict.Target())
	}
}

func TestSnapshotWithoutTokenIsAnonymous(t *testing.T) {
	engine := newEngine()
	sess := &fakeSession{token: "", user: &shared.UserSnapshot{ID: 1, Role: shared.RoleAdmin}}

	verdict := engine.Decide(sess, "/admin/orders")
	require.False(t, verdict.Allowed())
	assert.Equal(t, gate.LoginPath, verdict.Target())

	assert.True(t, engine.Decide(sess, "/login").Allowed())
}

func TestNilSessionIsAnonymous(t *testing.T) {
	engine := newEngine()
	verdict := engine.Decide(nil, "/user/cart")
	require.False(t, verdict.Allowed())
	assert.Equal(t, gate.LoginPath, verdict.Target())
}

func TestUnknownRoleDeniedOnEveryScope(t *testing.T) {
	engine := newEngine()
	sess := &fakeSession{token: "tok", user: &shared.UserSnapshot{ID: 3, Role: shared.Role("support")}}

	for _, path := range []string{"/admin", "/user/cart", "/driver/dashboard"} {
		verdict := engine.Decide(sess, path)
		require.False(t, verdict.Allowed(), "path %s", path)
		assert.Equal(t, gate.HomePath, verdict.Target())
	}
	// The shared scope only asks for a token.
	assert.True(t, engine.Decide(sess, "/dashboard").Allowed())
}

func TestDecideIsIdempotent(t *testing.T) {
	engine := newEngine()
	sess := loggedIn(shared.RoleUser)
	first := engine.Decide(sess, "/user/orders")
	second := engine.Decide(sess, "/user/orders")
	assert.Equal(t, first, second)
}

func TestConcreteScenarios(t *testing.T) {
	engine := newEngine()

	cases := []struct {
		name    string
		sess    gate.SessionInfo
		path    string
		allowed bool
		target  string
	}{
		{"no token on admin orders", anonymous(), "/admin/orders", false, "/login"},
		{"customer on login page", loggedIn(shared.RoleUser), "/login", false, "/dashboard"},
		{"customer on admin root", loggedIn(shared.RoleUser), "/admin", false, "/"},
		{"admin on admin products", loggedIn(shared.RoleAdmin), "/admin/products", true, ""},
		{"driver on customer cart", loggedIn(shared.RoleDriver), "/user/cart", false, "/"},
		{"driver on driver dashboard", loggedIn(shared.RoleDriver), "/driver/dashboard", true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := engine.Decide(tc.sess, tc.path)
			assert.Equal(t, tc.allowed, verdict.Allowed())
			assert.Equal(t, tc.target, verdict.Target())
		})
	}
}
