package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

const signinRateLimit = 5
const signinRateWindow = time.Minute

// MountRoutes registers auth routes on the provided router. The route gate
// keeps signed-in users away from /signin, so the handlers here only deal
// with the signed-out flow. The login POST carries its own per-IP limiter,
// far tighter than the global one, so credential guessing against a single
// account is throttled independently of ordinary page traffic.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(signinRateLimit, signinRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Terlalu banyak percobaan masuk. Coba lagi nanti.", http.StatusTooManyRequests)
		}),
	)
	r.Get("/signin", h.showSignin)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/signin", h.handleSignin)
	})
	r.Post("/logout", h.handleLogout)
}

type signinForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type signinPageData struct {
	Form   signinForm
	Errors map[string]string
}

func (h *Handler) showSignin(w http.ResponseWriter, r *http.Request) {
	h.renderSignin(w, r, signinPageData{}, http.StatusOK)
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := signinForm{
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
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			formErrors["general"] = "Email atau password tidak valid"
		} else {
			if sess == nil {
				h.logger.Error("session missing during signin")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.SetUser(user.ID)
			sess.SetRoleHint(user.RoleHint)
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Selamat datang kembali"})
			expiresAt := time.Now().Add(h.sessionManager.TTL())
			if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	h.renderSignin(w, r, signinPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (h *Handler) renderSignin(w http.ResponseWriter, r *http.Request, data signinPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Masuk",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/signin.html", viewData); err != nil {
		h.logger.Error("render signin", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ShowSigninForTest exposes the GET handler for tests.
func (h *Handler) ShowSigninForTest(w http.ResponseWriter, r *http.Request) {
	h.showSignin(w, r)
}

// HandleSigninForTest exposes the POST handler for tests.
func (h *Handler) HandleSigninForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSignin(w, r)
}
