package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/greenbasket/internal/platform/httpx"
	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
)

// Handler serves the shopper's cart pages under /user.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrfManager: csrf}
}

// MountRoutes registers cart routes on a router already scoped to /user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cart", h.showCart)
	r.Get("/cart/count", h.cartCount)
	r.Post("/cart/items", h.addItem)
	r.Post("/cart/items/{productID}", h.updateItem)
	r.Post("/cart/clear", h.clearCart)
}

// cartCount feeds the nav badge.
func (h *Handler) cartCount(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	items, err := h.service.Store().Items(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("count cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	count := 0
	for _, qty := range items {
		count += qty
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) showCart(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	contents, err := h.service.Load(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("load cart", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	err = h.templates.Render(w, "pages/cart.html", view.TemplateData{
		Title:       "Your cart",
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		User:        sess.User(),
		Data:        &contents,
	})
	if err != nil {
		h.logger.Error("render cart", slog.Any("error", err))
	}
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	productID, err := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	qty, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil || qty < 1 {
		qty = 1
	}

	if err := h.service.Add(r.Context(), sess.ID, productID, qty); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "That product is no longer available"})
			http.Redirect(w, r, "/products", http.StatusSeeOther)
			return
		}
		h.logger.Error("add cart item", slog.Int64("product_id", productID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Added to your cart"})
	http.Redirect(w, r, "/user/cart", http.StatusSeeOther)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	qty, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil || qty < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SetQuantity(r.Context(), sess.ID, productID, qty); err != nil {
		h.logger.Error("update cart item", slog.Int64("product_id", productID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/user/cart", http.StatusSeeOther)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.Clear(r.Context(), sess.ID); err != nil {
		h.logger.Error("clear cart", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Cart cleared"})
	http.Redirect(w, r, "/user/cart", http.StatusSeeOther)
}
