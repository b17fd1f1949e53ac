package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eresidence/eresidence/internal/platform/httpx"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler exposes the settings page and API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates}
}

// MountPageRoutes registers the settings page.
func (h *Handler) MountPageRoutes(r chi.Router) {
	r.Get("/", h.indexPage)
}

// MountAPIRoutes registers the read route, available to any signed-in
// user.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.show)
}

// MountMutationRoutes registers the admin routes. The router mounts
// them behind the settings.manage gate.
func (h *Handler) MountMutationRoutes(r chi.Router) {
	r.Put("/", h.update)
	r.Post("/reset", h.reset)
}

type settingsPayload struct {
	DashboardName       string `json:"dashboard_name"`
	ProjectAddress      string `json:"project_address,omitempty"`
	LogoRef             string `json:"logo_ref,omitempty"`
	FaviconRef          string `json:"favicon_ref,omitempty"`
	PrimaryColor        string `json:"primary_color"`
	SecondaryColor      string `json:"secondary_color"`
	Timezone            string `json:"timezone"`
	DateFormat          string `json:"date_format"`
	Language            string `json:"language"`
	RegistrationEnabled bool   `json:"registration_enabled"`
	EmailVerification   bool   `json:"email_verification"`
	MaintenanceMode     bool   `json:"maintenance_mode"`
	MaintenanceMessage  string `json:"maintenance_message"`
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("get settings", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Pengaturan Sistem",
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Settings": current},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderRequest(w, r, "pages/settings.html", data); err != nil {
		h.logger.Error("render settings", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("get settings", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*current))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsPayload
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	saved, err := h.service.Update(r.Context(), fromPayload(req))
	if err != nil {
		h.logger.Error("update settings", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*saved))
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	saved, err := h.service.Reset(r.Context())
	if err != nil {
		h.logger.Error("reset settings", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*saved))
}

func toPayload(s Settings) settingsPayload {
	return settingsPayload{
		DashboardName:       s.DashboardName,
		ProjectAddress:      s.ProjectAddress,
		LogoRef:             s.LogoRef,
		FaviconRef:          s.FaviconRef,
		PrimaryColor:        s.PrimaryColor,
		SecondaryColor:      s.SecondaryColor,
		Timezone:            s.Timezone,
		DateFormat:          s.DateFormat,
		Language:            s.Language,
		RegistrationEnabled: s.RegistrationEnabled,
		EmailVerification:   s.EmailVerificationNeeds,
		MaintenanceMode:     s.MaintenanceMode,
		MaintenanceMessage:  s.MaintenanceMessage,
	}
}

func fromPayload(p settingsPayload) Settings {
	return Settings{
		DashboardName:          p.DashboardName,
		ProjectAddress:         p.ProjectAddress,
		LogoRef:                p.LogoRef,
		FaviconRef:             p.FaviconRef,
		PrimaryColor:           p.PrimaryColor,
		SecondaryColor:         p.SecondaryColor,
		Timezone:               p.Timezone,
		DateFormat:             p.DateFormat,
		Language:               p.Language,
		RegistrationEnabled:    p.RegistrationEnabled,
		EmailVerificationNeeds: p.EmailVerification,
		MaintenanceMode:        p.MaintenanceMode,
		MaintenanceMessage:     p.MaintenanceMessage,
	}
}
