package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/platform/httpx"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler exposes role management as a page and a JSON API.
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

// MountPageRoutes registers the role management page.
func (h *Handler) MountPageRoutes(r chi.Router) {
	r.Get("/", h.indexPage)
}

// MountAPIRoutes registers role endpoints. The router mounts these behind
// the roles.manage capability gate.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{roleID}", h.show)
	r.Put("/{roleID}", h.update)
	r.Delete("/{roleID}", h.remove)
}

type rolePayload struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	IsSystem     bool     `json:"is_system"`
	IsActive     bool     `json:"is_active"`
}

type roleRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	IsActive     *bool    `json:"is_active"`
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Manajemen Role",
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Roles": list},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderRequest(w, r, "pages/roles.html", data); err != nil {
		h.logger.Error("render roles", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload := make([]rolePayload, 0, len(roles))
	for _, role := range roles {
		payload = append(payload, toPayload(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": payload})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Find(r.Context(), authz.RoleID(chi.URLParam(r, "roleID")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*role))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	role := fromRequest(req)
	if role.ID == "" {
		httpx.Error(w, http.StatusBadRequest, "role id wajib diisi")
		return
	}
	created, err := h.service.Create(r.Context(), role)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(*created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	role := fromRequest(req)
	role.ID = authz.RoleID(chi.URLParam(r, "roleID"))
	updated, err := h.service.Update(r.Context(), role)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.RoleID(chi.URLParam(r, "roleID"))); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "role tidak ditemukan")
	case errors.Is(err, ErrRoleInUse):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrRoleSystemReserved):
		httpx.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNameRequired):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("roles handler", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func toPayload(role Role) rolePayload {
	caps := make([]string, len(role.Capabilities))
	for i, c := range role.Capabilities {
		caps[i] = string(c)
	}
	return rolePayload{
		ID:           string(role.ID),
		Name:         role.Name,
		Description:  role.Description,
		Capabilities: caps,
		IsSystem:     role.IsSystem,
		IsActive:     role.IsActive,
	}
}

func fromRequest(req roleRequest) Role {
	caps := make([]authz.Capability, 0, len(req.Capabilities))
	for _, c := range req.Capabilities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		caps = append(caps, authz.Capability(c))
	}
	role := Role{
		ID:           authz.RoleID(strings.TrimSpace(req.ID)),
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Capabilities: caps,
		IsActive:     true,
	}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}
	return role
}
