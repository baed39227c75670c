package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenbasket/greenbasket/internal/gate"
)

func TestClassifyExactAndPrefix(t *testing.T) {
	matcher := gate.NewMatcher(gate.DefaultConfig())

	cases := []struct {
		path string
		want gate.RouteClass
	}{
		{"/login", gate.RoutePublic},
		{"/reset-password/token-abc", gate.RoutePublic},
		{"/admin", gate.RouteAdmin},
		{"/admin/orders/123", gate.RouteAdmin},
		{"/driver", gate.RouteDriver},
		{"/driver/orders/5", gate.RouteDriver},
		{"/user/cart", gate.RouteUser},
		{"/dashboard", gate.RouteShared},
		{"/", gate.RouteUnscoped},
		{"/products", gate.RouteUnscoped},
		// Prefix match requires a path separator, not a string prefix.
		{"/administrator", gate.RouteUnscoped},
		{"/users", gate.RouteUnscoped},
		{"/loginx", gate.RouteUnscoped},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, matcher.Classify(tc.path), "path %s", tc.path)
	}
}

func TestClassifyPrecedenceStopsAtFirstList(t *testing.T) {
	// A path listed as public never reaches the role-scoped lists, even
	// when a later list would also match it.
	matcher := gate.NewMatcher(gate.Config{
		Public: []string{"/admin/help"},
		Admin:  []string{"/admin"},
	})
	assert.Equal(t, gate.RoutePublic, matcher.Classify("/admin/help"))
	assert.Equal(t, gate.RouteAdmin, matcher.Classify("/admin/orders"))
}

func TestWatched(t *testing.T) {
	matcher := gate.NewMatcher(gate.DefaultConfig())
	assert.True(t, matcher.Watched("/admin/orders"))
	assert.True(t, matcher.Watched("/login"))
	assert.False(t, matcher.Watched("/products/apples"))
}
