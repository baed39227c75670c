package gate

import "strings"

// RouteClass is the protection scope a path resolves to.
type RouteClass int

const (
	// RoutePublic is reachable only by anonymous visitors (login, register).
	RoutePublic RouteClass = iota
	// RouteAdmin requires the admin role.
	RouteAdmin
	// RouteDriver requires the driver role (admin is accepted as a superset).
	RouteDriver
	// RouteUser requires the user role (admin is accepted as a superset).
	RouteUser
	// RouteShared requires any authenticated role.
	RouteShared
	// RouteUnscoped is a watched path matched by no configured list. The
	// engine denies these rather than falling through to allow.
	RouteUnscoped
)

func (c RouteClass) String() string {
	switch c {
	case RoutePublic:
		return "public"
	case RouteAdmin:
		return "admin"
	case RouteDriver:
		return "driver"
	case RouteUser:
		return "user"
	case RouteShared:
		return "shared"
	default:
		return "unscoped"
	}
}

// Config holds the static prefix lists defining each protection scope.
type Config struct {
	Public []string
	Admin  []string
	Driver []string
	User   []string
	Shared []string
}

// DefaultConfig returns the storefront's route scopes.
func DefaultConfig() Config {
	return Config{
		Public: []string{"/login", "/register", "/forget-password", "/reset-password"},
		Admin:  []string{"/admin"},
		Driver: []string{"/driver"},
		User:   []string{"/user"},
		Shared: []string{"/dashboard"},
	}
}

// Matcher classifies request paths by prefix. Lists are tested in a fixed
// precedence order and matching stops at the first hit, so a path cannot be
// simultaneously public and role-scoped.
type Matcher struct {
	cfg Config
}

// NewMatcher constructs a Matcher from the given scope lists.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Classify resolves a path to exactly one RouteClass.
func (m *Matcher) Classify(path string) RouteClass {
	switch {
	case matchAny(path, m.cfg.Public):
		return RoutePublic
	case matchAny(path, m.cfg.Admin):
		return RouteAdmin
	case matchAny(path, m.cfg.Driver):
		return RouteDriver
	case matchAny(path, m.cfg.User):
		return RouteUser
	case matchAny(path, m.cfg.Shared):
		return RouteShared
	}
	return RouteUnscoped
}

// Watched reports whether the path falls under any configured list and
// therefore triggers an access decision at all.
func (m *Matcher) Watched(path string) bool {
	return m.Classify(path) != RouteUnscoped
}

// matchAny reports whether path equals a listed entry exactly or starts
// with entry + "/". No wildcard or regex semantics.
func matchAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
