package categories

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eresidence/eresidence/internal/platform/httpx"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler exposes fee categories as a page and a JSON API.
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

// MountPageRoutes registers the categories page.
func (h *Handler) MountPageRoutes(r chi.Router) {
	r.Get("/", h.indexPage)
}

// MountAPIRoutes registers the read routes.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{categoryID}", h.show)
}

// MountMutationRoutes registers the mutating routes. The router mounts
// them behind the categories.manage gate.
func (h *Handler) MountMutationRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{categoryID}", h.update)
	r.Delete("/{categoryID}", h.remove)
}

type categoryPayload struct {
	ID             string `json:"id"`
	NamaKategori   string `json:"nama_kategori"`
	Deskripsi      string `json:"deskripsi,omitempty"`
	NominalDefault int64  `json:"nominal_default"`
	IsActive       bool   `json:"is_active"`
}

type categoryRequest struct {
	NamaKategori   string `json:"nama_kategori"`
	Deskripsi      string `json:"deskripsi"`
	NominalDefault int64  `json:"nominal_default"`
	IsActive       *bool  `json:"is_active"`
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), false)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Kategori Iuran",
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Categories": list},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderRequest(w, r, "pages/categories.html", data); err != nil {
		h.logger.Error("render categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload := make([]categoryPayload, 0, len(list))
	for _, category := range list {
		payload = append(payload, toPayload(category))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": payload})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.Find(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*category))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	created, err := h.service.Create(r.Context(), Category{
		NamaKategori:   req.NamaKategori,
		Deskripsi:      strings.TrimSpace(req.Deskripsi),
		NominalDefault: req.NominalDefault,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(*created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	category := Category{
		ID:             chi.URLParam(r, "categoryID"),
		NamaKategori:   req.NamaKategori,
		Deskripsi:      strings.TrimSpace(req.Deskripsi),
		NominalDefault: req.NominalDefault,
		IsActive:       true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	updated, err := h.service.Update(r.Context(), category)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.Delete(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if outcome == OutcomeDeactivated {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"deactivated": true,
			"message":     "kategori masih memiliki transaksi, dinonaktifkan",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "kategori tidak ditemukan")
	case errors.Is(err, ErrNameTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNameRequired):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("categories handler", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func toPayload(c Category) categoryPayload {
	return categoryPayload{
		ID:             c.ID,
		NamaKategori:   c.NamaKategori,
		Deskripsi:      c.Deskripsi,
		NominalDefault: c.NominalDefault,
		IsActive:       c.IsActive,
	}
}
