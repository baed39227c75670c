// Package gate implements the navigation access gate: it classifies an
// inbound path against the configured route scopes, reads the session's
// authentication state, and produces a single routing verdict consumed by
// the HTTP middleware chain before any handler runs.
package gate

// Redirect targets produced by the decision engine.
const (
	LoginPath     = "/login"
	HomePath      = "/"
	DashboardPath = "/dashboard"
)

// Verdict is the single outcome of one access decision: either continue to
// the requested route, or send the browser elsewhere. Keeping the target on
// the verdict separates the decision logic from URL construction.
type Verdict struct {
	allowed bool
	target  string
}

// Allow continues to the requested route.
func Allow() Verdict {
	return Verdict{allowed: true}
}

// Redirect sends the browser to target instead.
func Redirect(target string) Verdict {
	return Verdict{target: target}
}

// Allowed reports whether the request may proceed.
func (v Verdict) Allowed() bool {
	return v.allowed
}

// Target returns the redirect destination, or "" for an allow verdict.
func (v Verdict) Target() string {
	return v.target
}

func (v Verdict) String() string {
	if v.allowed {
		return "allow"
	}
	return "redirect:" + v.target
}
