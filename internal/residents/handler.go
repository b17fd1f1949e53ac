package residents

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eresidence/eresidence/internal/platform/httpx"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler serves the warga registry pages and JSON API.
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

// MountPageRoutes registers the registry page.
func (h *Handler) MountPageRoutes(r chi.Router) {
	r.Get("/", h.indexPage)
}

// MountAPIRoutes registers the registry API. Mutating routes sit behind
// the residents.edit and residents.delete gates in the router.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{residentID}", h.show)
}

// MountMutationRoutes registers the mutating API routes.
func (h *Handler) MountMutationRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{residentID}", h.update)
}

// MountDeleteRoutes registers the delete API route.
func (h *Handler) MountDeleteRoutes(r chi.Router) {
	r.Delete("/{residentID}", h.remove)
}

type residentPayload struct {
	ID            string  `json:"id"`
	NamaWarga     string  `json:"nama_warga"`
	NIK           string  `json:"nik,omitempty"`
	NomorRumah    string  `json:"nomor_rumah"`
	Blok          string  `json:"blok,omitempty"`
	AlamatLengkap string  `json:"alamat_lengkap,omitempty"`
	NoTelp        string  `json:"no_telp,omitempty"`
	Email         string  `json:"email,omitempty"`
	JumlahAnggota int     `json:"jumlah_anggota"`
	Status        string  `json:"status"`
	ProfileID     *string `json:"profile_id,omitempty"`
}

type residentRequest struct {
	NamaWarga     string  `json:"nama_warga" validate:"required"`
	NIK           string  `json:"nik"`
	NomorRumah    string  `json:"nomor_rumah" validate:"required"`
	Blok          string  `json:"blok"`
	AlamatLengkap string  `json:"alamat_lengkap"`
	NoTelp        string  `json:"no_telp"`
	Email         string  `json:"email" validate:"omitempty,email"`
	JumlahAnggota int     `json:"jumlah_anggota"`
	Status        string  `json:"status"`
	ProfileID     *string `json:"profile_id"`
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list residents", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Data Warga",
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"Residents": list,
			"Filter":    filter,
		},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderRequest(w, r, "pages/residents.html", data); err != nil {
		h.logger.Error("render residents", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("list residents", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload := make([]residentPayload, 0, len(list))
	for _, resident := range list {
		payload = append(payload, toPayload(resident))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"residents": payload})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	resident, err := h.service.Find(r.Context(), chi.URLParam(r, "residentID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*resident))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req residentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "data warga tidak valid")
		return
	}
	created, err := h.service.Create(r.Context(), fromRequest(req))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(*created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req residentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "data warga tidak valid")
		return
	}
	resident := fromRequest(req)
	resident.ID = chi.URLParam(r, "residentID")
	updated, err := h.service.Update(r.Context(), resident)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "residentID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "warga tidak ditemukan")
	case errors.Is(err, ErrNIKTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNameRequired):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("residents handler", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	return ListFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Blok:   strings.TrimSpace(q.Get("blok")),
		Status: strings.TrimSpace(q.Get("status")),
	}
}

func toPayload(res Resident) residentPayload {
	return residentPayload{
		ID:            res.ID,
		NamaWarga:     res.NamaWarga,
		NIK:           res.NIK,
		NomorRumah:    res.NomorRumah,
		Blok:          res.Blok,
		AlamatLengkap: res.AlamatLengkap,
		NoTelp:        res.NoTelp,
		Email:         res.Email,
		JumlahAnggota: res.JumlahAnggota,
		Status:        res.Status,
		ProfileID:     res.ProfileID,
	}
}

func fromRequest(req residentRequest) Resident {
	return Resident{
		NamaWarga:     strings.TrimSpace(req.NamaWarga),
		NIK:           strings.TrimSpace(req.NIK),
		NomorRumah:    strings.TrimSpace(req.NomorRumah),
		Blok:          strings.TrimSpace(req.Blok),
		AlamatLengkap: strings.TrimSpace(req.AlamatLengkap),
		NoTelp:        strings.TrimSpace(req.NoTelp),
		Email:         strings.TrimSpace(req.Email),
		JumlahAnggota: req.JumlahAnggota,
		Status:        req.Status,
		ProfileID:     req.ProfileID,
	}
}
