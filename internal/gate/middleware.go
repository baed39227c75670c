package gate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/greenbasket/greenbasket/internal/shared"
)

// Middleware evaluates the access gate once per navigation, before route
// rendering. Paths outside the watch list pass through untouched.
type Middleware struct {
	engine     *Engine
	watch      []string
	logger     *slog.Logger
	onRedirect func(target string)
}

// NewMiddleware constructs the gate middleware. When watch is empty, the
// union of the matcher's scope lists is watched.
func NewMiddleware(engine *Engine, watch []string, logger *slog.Logger) *Middleware {
	if len(watch) == 0 {
		cfg := engine.Matcher().cfg
		watch = append(watch, cfg.Public...)
		watch = append(watch, cfg.Admin...)
		watch = append(watch, cfg.Driver...)
		watch = append(watch, cfg.User...)
		watch = append(watch, cfg.Shared...)
	}
	return &Middleware{engine: engine, watch: watch, logger: logger}
}

// OnRedirect registers a hook invoked with the redirect target whenever the
// gate denies a request. Used to feed denial counters.
func (m *Middleware) OnRedirect(fn func(target string)) {
	m.onRedirect = fn
}

// Handler wraps next with the access decision.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := normalizePath(r.URL.Path)
		if !matchAny(path, m.watch) {
			next.ServeHTTP(w, r)
			return
		}

		sess := shared.SessionFromContext(r.Context())
		verdict := m.engine.Decide(sess, path)
		if verdict.Allowed() {
			next.ServeHTTP(w, r)
			return
		}

		if m.onRedirect != nil {
			m.onRedirect(verdict.Target())
		}
		if m.logger != nil {
			m.logger.Debug("gate redirect",
				slog.String("path", path),
				slog.String("verdict", verdict.String()),
			)
		}
		// Denials land the visitor somewhere sensible, never on an error page.
		http.Redirect(w, r, verdict.Target(), http.StatusSeeOther)
	})
}

// normalizePath trims a trailing slash so "/admin/" and "/admin" classify
// alike. The root path is left as is.
func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}
