package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
)

// OrderSource is the slice of the order service the dashboard reads from.
type OrderSource interface {
	StatusCounts(ctx context.Context) (map[orders.OrderStatus]int, error)
	ListActiveByDriver(ctx context.Context, driverID int64) ([]orders.Order, error)
	ListByAccount(ctx context.Context, accountID int64) ([]orders.Order, error)
}

// Handler serves the shared landing page every authenticated role gets
// after login. The page body branches on role; the route does not.
type Handler struct {
	logger      *slog.Logger
	orders      OrderSource
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, orderSource OrderSource, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, orders: orderSource, templates: templates, csrfManager: csrf}
}

type statusCount struct {
	Status orders.OrderStatus
	Count  int
}

type pageData struct {
	IsAdmin      bool
	IsDriver     bool
	StatusCounts []statusCount
	ActiveRuns   int
	RecentOrders []orders.Order
}

// Show renders the dashboard for the current user's role.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	user := sess.User()
	// A stored token with no snapshot reads back as a nil user. Treat it
	// like any other broken session: back to login.
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := pageData{
		IsAdmin:  user.Role == shared.RoleAdmin,
		IsDriver: user.Role == shared.RoleDriver,
	}

	var err error
	switch {
	case data.IsAdmin:
		var counts map[orders.OrderStatus]int
		counts, err = h.orders.StatusCounts(r.Context())
		if err == nil {
			for _, status := range orders.AllStatuses {
				if n := counts[status]; n > 0 {
					data.StatusCounts = append(data.StatusCounts, statusCount{Status: status, Count: n})
				}
			}
		}
	case data.IsDriver:
		var runs []orders.Order
		runs, err = h.orders.ListActiveByDriver(r.Context(), user.ID)
		data.ActiveRuns = len(runs)
	default:
		data.RecentOrders, err = h.orders.ListByAccount(r.Context(), user.ID)
		if len(data.RecentOrders) > 5 {
			data.RecentOrders = data.RecentOrders[:5]
		}
	}
	if err != nil {
		h.logger.Error("load dashboard", slog.String("role", string(user.Role)), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	err = h.templates.Render(w, "pages/dashboard.html", view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		User:        user,
		Data:        data,
	})
	if err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
	}
}
