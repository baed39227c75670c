package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/greenbasket/greenbasket/internal/auth"
	"github.com/greenbasket/greenbasket/internal/cart"
	"github.com/greenbasket/greenbasket/internal/catalog"
	"github.com/greenbasket/greenbasket/internal/dashboard"
	"github.com/greenbasket/greenbasket/internal/delivery"
	"github.com/greenbasket/greenbasket/internal/gate"
	"github.com/greenbasket/greenbasket/internal/observability"
	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/platform/httpx"
	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/users"
	"github.com/greenbasket/greenbasket/internal/view"
	"github.com/greenbasket/greenbasket/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	Gate             *gate.Middleware
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	CatalogHandler   *catalog.Handler
	CartHandler      *cart.Handler
	OrdersHandler    *orders.Handler
	DeliveryHandler  *delivery.Handler
	DashboardHandler *dashboard.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with GreenBasket defaults. The gate
// middleware sits in the shared stack, so by the time a request reaches a
// /user, /driver or /admin handler its role has already been checked.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Gate:           params.Gate,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Storefront landing page, shared by anonymous and signed-in visitors.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       "GreenBasket",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
			User:        sess.User(),
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	// Login, registration and password reset live at the root.
	params.AuthHandler.MountRoutes(r)

	params.CatalogHandler.MountPublicRoutes(r)

	r.Get("/dashboard", params.DashboardHandler.Show)

	r.Route("/user", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r)
		params.CartHandler.MountRoutes(r)
		params.OrdersHandler.MountCustomerRoutes(r)
	})

	r.Route("/admin", func(r chi.Router) {
		params.CatalogHandler.MountAdminRoutes(r)
		params.OrdersHandler.MountAdminRoutes(r)
	})

	r.Route("/driver", params.DeliveryHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
