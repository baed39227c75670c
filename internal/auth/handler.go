package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
)

// Mailer enqueues transactional mail. The worker drains the queue; handlers
// never block on SMTP.
type Mailer interface {
	EnqueuePasswordReset(ctx context.Context, to, link string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	resetTokens    *ResetTokens
	mailer         Mailer
	baseURL        string
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, resetTokens *ResetTokens, mailer Mailer, baseURL string) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		resetTokens:    resetTokens,
		mailer:         mailer,
		baseURL:        baseURL,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router. The paths are
// root-level because the access gate classifies them by the same prefixes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Get("/forget-password", h.showForgetPassword)
	r.Post("/forget-password", h.handleForgetPassword)
	r.Get("/reset-password", h.showResetPassword)
	r.Post("/reset-password", h.handleResetPassword)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, "pages/login.html", "Sign in", loginPageData{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(formErrors) == 0 {
		account, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			formErrors["general"] = "Invalid email or password"
		} else {
			if sess == nil {
				h.logger.Error("session missing during login")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			token := h.service.NewSessionToken()
			sess.SetAuth(token, account.Snapshot())
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
			expiresAt := time.Now().Add(h.sessionManager.TTL())
			if err := h.service.RegisterSession(r.Context(), sess.ID, account.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}

	h.renderAuthPage(w, r, "pages/login.html", "Sign in", loginPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

type registerForm struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type registerPageData struct {
	Form   registerForm
	Errors map[string]string
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, "pages/register.html", "Create account", registerPageData{}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := registerForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(formErrors) == 0 {
		account, err := h.service.Register(r.Context(), form.Name, form.Email, form.Password)
		switch {
		case errors.Is(err, shared.ErrEmailTaken):
			formErrors["Email"] = "That email is already registered"
		case err != nil:
			h.logger.Error("register account", slog.Any("error", err))
			formErrors["general"] = "Something went wrong, please try again"
		default:
			if sess != nil {
				sess.SetAuth(h.service.NewSessionToken(), account.Snapshot())
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome to GreenBasket"})
			}
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}

	h.renderAuthPage(w, r, "pages/register.html", "Create account", registerPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type forgetPasswordPageData struct {
	Sent bool
}

func (h *Handler) showForgetPassword(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, "pages/forget_password.html", "Reset password", forgetPasswordPageData{}, http.StatusOK)
}

func (h *Handler) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")

	// The response never reveals whether the address exists.
	if account, err := h.service.FindByEmail(r.Context(), email); err == nil && account.IsActive {
		token, err := h.resetTokens.Issue(account.ID, account.Email)
		if err != nil {
			h.logger.Error("issue reset token", slog.Any("error", err))
		} else {
			link := h.baseURL + "/reset-password?token=" + token
			if err := h.mailer.EnqueuePasswordReset(r.Context(), account.Email, link); err != nil {
				h.logger.Error("enqueue reset mail", slog.Any("error", err))
			}
		}
	}

	h.renderAuthPage(w, r, "pages/forget_password.html", "Reset password", forgetPasswordPageData{Sent: true}, http.StatusOK)
}

type resetPasswordPageData struct {
	Token  string
	Errors map[string]string
}

func (h *Handler) showResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, err := h.resetTokens.Verify(token); err != nil {
		h.renderAuthPage(w, r, "pages/reset_password.html", "Choose a new password", resetPasswordPageData{
			Errors: map[string]string{"general": "This reset link is invalid or has expired"},
		}, http.StatusBadRequest)
		return
	}
	h.renderAuthPage(w, r, "pages/reset_password.html", "Choose a new password", resetPasswordPageData{Token: token}, http.StatusOK)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	token := r.PostFormValue("token")
	password := r.PostFormValue("password")

	claims, err := h.resetTokens.Verify(token)
	if err != nil {
		h.renderAuthPage(w, r, "pages/reset_password.html", "Choose a new password", resetPasswordPageData{
			Errors: map[string]string{"general": "This reset link is invalid or has expired"},
		}, http.StatusBadRequest)
		return
	}
	if len(password) < 8 {
		h.renderAuthPage(w, r, "pages/reset_password.html", "Choose a new password", resetPasswordPageData{
			Token:  token,
			Errors: map[string]string{"Password": "Password must be at least 8 characters"},
		}, http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.AccountID, password); err != nil {
		h.logger.Error("change password", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Password updated, please sign in"})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) renderAuthPage(w http.ResponseWriter, r *http.Request, page, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        sess.User(),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render auth page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleRegisterForTest exposes the POST handler for tests.
func (h *Handler) HandleRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.handleRegister(w, r)
}
