package gate

import (
	"github.com/greenbasket/greenbasket/internal/shared"
)

// SessionInfo is the slice of session state the engine reads. *shared.Session
// satisfies it; tests supply synthetic sessions without touching Redis.
type SessionInfo interface {
	Token() string
	User() *shared.UserSnapshot
}

// Engine turns (session, path) into a Verdict. It performs no I/O of its
// own, cannot fail partway, and always terminates in exactly one verdict.
type Engine struct {
	matcher *Matcher
}

// NewEngine constructs an Engine over the given route matcher.
func NewEngine(matcher *Matcher) *Engine {
	return &Engine{matcher: matcher}
}

// Matcher exposes the engine's route matcher.
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// Decide evaluates the transition table top to bottom, first match wins.
//
// Admin is a superset role on the customer- and driver-facing scopes, but
// admin-scoped paths strictly require admin. Watched paths matched by no
// scope list are denied, not allowed.
func (e *Engine) Decide(sess SessionInfo, path string) Verdict {
	class := e.matcher.Classify(path)

	var token string
	var user *shared.UserSnapshot
	if sess != nil {
		token = sess.Token()
		if token != "" {
			user = sess.User()
		}
	}

	if token == "" {
		if class != RoutePublic {
			return Redirect(LoginPath)
		}
		return Allow()
	}

	if class == RoutePublic {
		return Redirect(DashboardPath)
	}

	role := shared.ClassifyRole(user)
	switch class {
	case RouteAdmin:
		if role != shared.RoleAdmin {
			return Redirect(HomePath)
		}
	case RouteDriver:
		if role != shared.RoleDriver && role != shared.RoleAdmin {
			return Redirect(HomePath)
		}
	case RouteUser:
		if role != shared.RoleUser && role != shared.RoleAdmin {
			return Redirect(HomePath)
		}
	case RouteShared:
		// Any authenticated role.
	case RouteUnscoped:
		return Redirect(HomePath)
	}

	return Allow()
}
