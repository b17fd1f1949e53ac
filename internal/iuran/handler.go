package iuran

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eresidence/eresidence/internal/platform/httpx"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/view"
)

// Handler serves the transaction pages and JSON API.
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

// MountPageRoutes registers the transaction listing page.
func (h *Handler) MountPageRoutes(r chi.Router) {
	r.Get("/", h.indexPage)
}

// MountAPIRoutes registers the read routes.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{transactionID}", h.show)
	r.Get("/{transactionID}/history", h.history)
}

// MountMutationRoutes registers the mutating routes. The router mounts
// them behind the transactions.edit gate.
func (h *Handler) MountMutationRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{transactionID}", h.update)
	r.Patch("/{transactionID}/status", h.updateStatus)
	r.Delete("/{transactionID}", h.remove)
}

type transactionPayload struct {
	ID                string `json:"id"`
	NomorUrut         int64  `json:"nomor_urut"`
	ResidentID        string `json:"resident_id"`
	ResidentName      string `json:"resident_name"`
	NomorRumah        string `json:"nomor_rumah"`
	CategoryID        string `json:"category_id"`
	CategoryName      string `json:"category_name"`
	Periode           string `json:"periode"`
	JumlahNominal     int64  `json:"jumlah_nominal"`
	MetodePembayaran  string `json:"metode_pembayaran"`
	StatusPembayaran  string `json:"status_pembayaran"`
	TanggalBayar      string `json:"tanggal_bayar,omitempty"`
	TanggalJatuhTempo string `json:"tanggal_jatuh_tempo,omitempty"`
	Keterangan        string `json:"keterangan,omitempty"`
	BuktiPembayaran   string `json:"bukti_pembayaran,omitempty"`
}

type transactionRequest struct {
	ResidentID        string `json:"resident_id"`
	CategoryID        string `json:"category_id"`
	Periode           string `json:"periode"`
	JumlahNominal     int64  `json:"jumlah_nominal"`
	MetodePembayaran  string `json:"metode_pembayaran"`
	StatusPembayaran  string `json:"status_pembayaran"`
	TanggalJatuhTempo string `json:"tanggal_jatuh_tempo"`
	Keterangan        string `json:"keterangan"`
	BuktiPembayaran   string `json:"bukti_pembayaran"`
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Transaksi Iuran",
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"Page":   page,
			"Filter": filter,
		},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderRequest(w, r, "pages/transactions.html", data); err != nil {
		h.logger.Error("render transactions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload := make([]transactionPayload, 0, len(page.Transactions))
	for _, tx := range page.Transactions {
		payload = append(payload, toPayload(tx))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"transactions": payload,
		"totalCount":   page.TotalCount,
		"totalPages":   page.TotalPages,
		"currentPage":  page.CurrentPage,
		"hasNext":      page.HasNext,
		"hasPrev":      page.HasPrev,
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("transaction stats", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	recent := make([]transactionPayload, 0, len(stats.RecentTransacts))
	for _, tx := range stats.RecentTransacts {
		recent = append(recent, toPayload(tx))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"monthlyRevenue":     stats.MonthlyRevenue,
		"revenueGrowth":      stats.RevenueGrowth,
		"pendingAmount":      stats.PendingAmount,
		"pendingCount":       stats.PendingCount,
		"statusCounts":       stats.StatusCounts,
		"monthlySeries":      stats.MonthlySeries,
		"recentTransactions": recent,
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.Find(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*tx))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.ResidentID == "" || req.CategoryID == "" {
		httpx.Error(w, http.StatusBadRequest, "warga dan kategori wajib diisi")
		return
	}
	tx := fromRequest(req)
	tx.DibuatOleh = currentSubjectID(r)
	created, err := h.service.Create(r.Context(), tx)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(*created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	tx := fromRequest(req)
	tx.ID = chi.URLParam(r, "transactionID")
	updated, err := h.service.Update(r.Context(), tx, currentSubjectID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*updated))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	updated, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "transactionID"), req.Status, currentSubjectID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "transactionID"), currentSubjectID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "transaksi tidak ditemukan")
	case errors.Is(err, ErrDuplicateTransaction):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidPeriode),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrAmountRequired):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("transactions handler", slog.Any("error", err))
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

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{
		Periode:    q.Get("periode"),
		CategoryID: q.Get("category_id"),
		ResidentID: q.Get("resident_id"),
		Method:     q.Get("metode"),
		Status:     q.Get("status"),
		Search:     strings.TrimSpace(q.Get("search")),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil {
		filter.PerPage = perPage
	}
	if from, err := time.Parse("2006-01-02", q.Get("date_from")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", q.Get("date_to")); err == nil {
		end := to.AddDate(0, 0, 1)
		filter.DateTo = &end
	}
	return filter
}

func toPayload(tx Transaction) transactionPayload {
	payload := transactionPayload{
		ID:               tx.ID,
		NomorUrut:        tx.NomorUrut,
		ResidentID:       tx.ResidentID,
		ResidentName:     tx.ResidentName,
		NomorRumah:       tx.NomorRumah,
		CategoryID:       tx.CategoryID,
		CategoryName:     tx.CategoryName,
		Periode:          tx.Periode,
		JumlahNominal:    tx.JumlahNominal,
		MetodePembayaran: tx.MetodePembayaran,
		StatusPembayaran: tx.StatusPembayaran,
		Keterangan:       tx.Keterangan,
		BuktiPembayaran:  tx.BuktiPembayaran,
	}
	if tx.TanggalBayar != nil {
		payload.TanggalBayar = tx.TanggalBayar.Format("2006-01-02")
	}
	if tx.TanggalJatuhTempo != nil {
		payload.TanggalJatuhTempo = tx.TanggalJatuhTempo.Format("2006-01-02")
	}
	return payload
}

func fromRequest(req transactionRequest) Transaction {
	tx := Transaction{
		ResidentID:       req.ResidentID,
		CategoryID:       req.CategoryID,
		Periode:          strings.TrimSpace(req.Periode),
		JumlahNominal:    req.JumlahNominal,
		MetodePembayaran: req.MetodePembayaran,
		StatusPembayaran: req.StatusPembayaran,
		Keterangan:       strings.TrimSpace(req.Keterangan),
		BuktiPembayaran:  strings.TrimSpace(req.BuktiPembayaran),
	}
	if due, err := time.Parse("2006-01-02", req.TanggalJatuhTempo); err == nil {
		tx.TanggalJatuhTempo = &due
	}
	return tx
}
