package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/platform/httpx"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler exposes account management as a page and a JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, validator: validator.New()}
}

// MountPageRoutes registers the user management page.
func (h *Handler) MountPageRoutes(r chi.Router) {
	r.Get("/", h.indexPage)
}

// MountAPIRoutes registers account endpoints. The router mounts these
// behind the users.manage capability gate.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{userID}", h.show)
	r.Put("/{userID}", h.update)
	r.Delete("/{userID}", h.remove)
}

type accountPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	RoleID   string `json:"role_id"`
	IsActive bool   `json:"is_active"`
	Created  string `json:"created_at"`
}

type createAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	RoleID   string `json:"role_id"`
}

type updateAccountRequest struct {
	FullName *string `json:"full_name"`
	RoleID   *string `json:"role_id"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Manajemen Pengguna",
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Users": accounts},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderRequest(w, r, "pages/users.html", data); err != nil {
		h.logger.Error("render users", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload := make([]accountPayload, 0, len(accounts))
	for _, account := range accounts {
		payload = append(payload, toPayload(account))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": payload})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Find(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*account))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "data tidak valid")
		return
	}
	account, err := h.service.Create(r.Context(), NewAccount{
		Email:    req.Email,
		Password: req.Password,
		FullName: strings.TrimSpace(req.FullName),
		RoleID:   authz.RoleID(req.RoleID),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(*account))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	patch := AccountPatch{
		FullName: req.FullName,
		IsActive: req.IsActive,
		Password: req.Password,
	}
	if req.RoleID != nil {
		role := authz.RoleID(*req.RoleID)
		patch.RoleID = &role
	}
	id := chi.URLParam(r, "userID")
	if patch.IsActive != nil && !*patch.IsActive && id == currentSubjectID(r) {
		h.respondError(w, ErrSelfDeactivate)
		return
	}
	account, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*account))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), currentSubjectID(r), chi.URLParam(r, "userID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "pengguna tidak ditemukan")
	case errors.Is(err, ErrEmailTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownRole):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSelfDeactivate):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("users handler", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func currentSubjectID(r *http.Request) string {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return ""
	}
	return sess.User()
}

func toPayload(account Account) accountPayload {
	return accountPayload{
		ID:       account.ID,
		Email:    account.Email,
		FullName: account.FullName,
		RoleID:   string(account.RoleID),
		IsActive: account.IsActive,
		Created:  account.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
