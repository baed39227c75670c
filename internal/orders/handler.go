package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/users"
	"github.com/greenbasket/greenbasket/internal/view"
)

// DriverDirectory lists driver accounts for assignment dropdowns.
type DriverDirectory interface {
	ListDrivers(ctx context.Context) ([]users.Profile, error)
}

// Handler serves customer order pages and the admin order console.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	drivers     DriverDirectory
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, drivers DriverDirectory, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		drivers:     drivers,
		templates:   templates,
		csrfManager: csrf,
	}
}

// MountCustomerRoutes registers order routes on a router scoped to /user.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.showOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/checkout", h.checkout)
}

// MountAdminRoutes registers the console on a router scoped to /admin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/orders", h.adminListOrders)
	r.Get("/orders/{id}", h.adminShowOrder)
	r.Post("/orders/{id}/status", h.adminUpdateStatus)
	r.Post("/orders/{id}/assign", h.adminAssignDriver)
}

type ordersPageData struct {
	Orders []Order
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.ListByAccount(r.Context(), sess.User().ID)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/orders.html", "Your orders", ordersPageData{Orders: list})
}

type orderPageData struct {
	Order     *Order
	CanCancel bool
}

func (h *Handler) showOrder(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	order, ok := h.loadOrder(w, r, func(id int64) (*Order, error) {
		return h.service.GetForAccount(r.Context(), id, sess.User().ID)
	})
	if !ok {
		return
	}
	h.render(w, r, "pages/order.html", "Order "+order.Reference, orderPageData{
		Order:     order,
		CanCancel: order.CanCancel(),
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = h.service.Cancel(r.Context(), id, sess.User().ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, ErrInvalidTransition):
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "This order can no longer be cancelled"})
	case err != nil:
		h.logger.Error("cancel order", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	default:
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Order cancelled"})
	}
	http.Redirect(w, r, "/user/orders/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	address := strings.TrimSpace(r.PostFormValue("address"))
	if address == "" {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "A delivery address is required"})
		http.Redirect(w, r, "/user/cart", http.StatusSeeOther)
		return
	}

	order, err := h.service.Checkout(r.Context(), sess.User(), sess.ID, address)
	switch {
	case errors.Is(err, ErrEmptyCart):
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Your cart is empty"})
		http.Redirect(w, r, "/user/cart", http.StatusSeeOther)
		return
	case errors.Is(err, ErrInsufficientStock):
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "An item in your cart just sold out"})
		http.Redirect(w, r, "/user/cart", http.StatusSeeOther)
		return
	case err != nil:
		h.logger.Error("checkout", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Order " + order.Reference + " placed"})
	http.Redirect(w, r, "/user/orders/"+strconv.FormatInt(order.ID, 10), http.StatusSeeOther)
}

type adminOrdersPageData struct {
	Orders   []Order
	Statuses []OrderStatus
	Filter   string
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	rawStatus := r.URL.Query().Get("status")
	if rawStatus != "" && ValidStatus(OrderStatus(rawStatus)) {
		filter.Status = OrderStatus(rawStatus)
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("admin list orders", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_orders.html", "Orders", adminOrdersPageData{
		Orders:   list,
		Statuses: AllStatuses,
		Filter:   string(filter.Status),
	})
}

type adminOrderPageData struct {
	Order        *Order
	CustomerName string
	NextStatuses []OrderStatus
	CanAssign    bool
	Drivers      []users.Profile
}

func (h *Handler) adminShowOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r, func(id int64) (*Order, error) {
		return h.service.Get(r.Context(), id)
	})
	if !ok {
		return
	}

	data := adminOrderPageData{
		Order:        order,
		CustomerName: order.CustomerName,
		NextStatuses: NextStatuses(order.Status),
		CanAssign:    order.Status == StatusConfirmed || order.Status == StatusPicking,
	}
	if data.CanAssign {
		drivers, err := h.drivers.ListDrivers(r.Context())
		if err != nil {
			h.logger.Error("list drivers", slog.Any("error", err))
		} else {
			data.Drivers = drivers
			data.CanAssign = len(drivers) > 0
		}
	}
	h.render(w, r, "pages/admin_order.html", "Order "+order.Reference, data)
}

func (h *Handler) adminUpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	to := OrderStatus(r.PostFormValue("status"))
	err = h.service.UpdateStatus(r.Context(), id, to, r.PostFormValue("note"))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, ErrInvalidTransition):
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "That status change is not allowed"})
	case err != nil:
		h.logger.Error("update order status", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	default:
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Order moved to " + string(to)})
	}
	http.Redirect(w, r, "/admin/orders/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) adminAssignDriver(w http.ResponseWriter, r *http.Request) {
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
	driverID, err := strconv.ParseInt(r.PostFormValue("driver_id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err = h.service.AssignDriver(r.Context(), id, driverID)
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, ErrNotDriver):
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "That account cannot take deliveries"})
	case errors.Is(err, ErrNotAssignable):
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "This order is not ready for a driver"})
	case err != nil:
		h.logger.Error("assign driver", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	default:
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Driver assigned"})
	}
	http.Redirect(w, r, "/admin/orders/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request, fetch func(int64) (*Order, error)) (*Order, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	order, err := fetch(id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.logger.Error("load order", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return order, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	err := h.templates.Render(w, page, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		User:        sess.User(),
		Data:        data,
	})
	if err != nil {
		h.logger.Error("render order page", slog.String("page", page), slog.Any("error", err))
	}
}
