package delivery

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
)

// RunSheet is the slice of the order service drivers interact with.
type RunSheet interface {
	ListActiveByDriver(ctx context.Context, driverID int64) ([]orders.Order, error)
	CompleteDelivery(ctx context.Context, id, driverID int64, note string) error
}

// Handler serves the driver run sheet under /driver.
type Handler struct {
	logger      *slog.Logger
	runSheet    RunSheet
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, runSheet RunSheet, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, runSheet: runSheet, templates: templates, csrfManager: csrf}
}

// MountRoutes registers driver routes on a router scoped to /driver.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.showRunSheet)
	r.Post("/orders/{id}/status", h.completeDelivery)
}

type runSheetPageData struct {
	Orders []orders.Order
}

func (h *Handler) showRunSheet(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.runSheet.ListActiveByDriver(r.Context(), sess.User().ID)
	if err != nil {
		h.logger.Error("load run sheet", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	err = h.templates.Render(w, "pages/driver_dashboard.html", view.TemplateData{
		Title:       "Run sheet",
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		User:        sess.User(),
		Data:        runSheetPageData{Orders: list},
	})
	if err != nil {
		h.logger.Error("render run sheet", slog.Any("error", err))
	}
}

func (h *Handler) completeDelivery(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err = h.runSheet.CompleteDelivery(r.Context(), id, sess.User().ID, r.PostFormValue("note"))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		// Either not their assignment or no such order; drivers see the
		// same answer for both.
		http.NotFound(w, r)
		return
	case errors.Is(err, orders.ErrInvalidTransition):
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "This delivery is not out yet"})
	case err != nil:
		h.logger.Error("complete delivery", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	default:
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Delivery completed"})
	}
	http.Redirect(w, r, "/driver/dashboard", http.StatusSeeOther)
}
