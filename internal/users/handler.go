package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
)

// Handler wires the profile pages.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers profile routes under /user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profile", h.showProfile)
	r.Post("/profile", h.handleUpdateProfile)
}

type profileForm struct {
	Name  string `validate:"required,min=2"`
	Phone string `validate:"omitempty,min=6,max=20"`
}

type profilePageData struct {
	Form   profileForm
	Errors map[string]string
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	snapshot := sess.User()
	if snapshot == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), snapshot.ID)
	if err != nil {
		h.logger.Error("load profile", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, profilePageData{Form: profileForm{Name: profile.Name, Phone: profile.Phone}}, http.StatusOK)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	snapshot := sess.User()
	if snapshot == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := profileForm{
		Name:  r.PostFormValue("name"),
		Phone: r.PostFormValue("phone"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(formErrors) > 0 {
		h.render(w, r, profilePageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), snapshot.ID, form.Name, form.Phone)
	if err != nil {
		h.logger.Error("update profile", slog.Any("error", err))
		formErrors["general"] = "Could not save your profile"
		h.render(w, r, profilePageData{Form: form, Errors: formErrors}, http.StatusInternalServerError)
		return
	}

	// The snapshot is replaced wholesale; the token is untouched.
	sess.RefreshUser(profile.Snapshot())
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Profile saved"})
	http.Redirect(w, r, "/user/profile", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data profilePageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	err := h.templates.Render(w, "pages/profile.html", view.TemplateData{
		Title:       "Your profile",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        sess.User(),
		Data:        data,
	})
	if err != nil {
		h.logger.Error("render profile", slog.Any("error", err))
	}
}
