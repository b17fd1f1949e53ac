package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eresidence/eresidence/internal/platform/httpx"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler serves the landing page and the stats API.
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

// MountPageRoutes registers the landing page.
func (h *Handler) MountPageRoutes(r chi.Router) {
	r.Get("/", h.indexPage)
}

// MountAPIRoutes registers the stats API.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/stats", h.stats)
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("dashboard stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Dashboard",
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Stats": stats},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderRequest(w, r, "pages/home.html", data); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("dashboard stats", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"totalWarga":        stats.TotalWarga,
		"wargaMenunggak":    stats.WargaMenunggak,
		"pendapatanBulanan": stats.PendapatanBulanan,
		"tunggakanTotal":    stats.TunggakanTotal,
		"arrears":           stats.Arrears,
		"recent":            stats.Recent,
	})
}
