package dian

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/rbac"
)

// Enqueuer schedules async report jobs.
type Enqueuer interface {
	EnqueueDianReport(invoiceID int64) error
}

// Handler serves DIAN reporting endpoints. Admin only.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer Enqueuer
	rbac     rbac.Middleware
}

// NewHandler constructs the Handler. enqueuer may be nil; reporting
// then runs synchronously.
func NewHandler(logger *slog.Logger, service *Service, enqueuer Enqueuer, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer, rbac: rbacMW}
}

// MountRoutes registers DIAN routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAdmin)
	r.Post("/invoices/{invoiceID}/report", h.report)
	r.Post("/invoices/{invoiceID}/report-async", h.reportAsync)
	r.Get("/invoices/{invoiceID}/document", h.document)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	doc, err := h.service.Report(r.Context(), invoiceID)
	if err != nil {
		h.logger.Error("dian report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) reportAsync(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "async reporting is not configured")
		return
	}
	if err := h.enqueuer.EnqueueDianReport(invoiceID); err != nil {
		h.logger.Error("enqueue dian report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	doc, err := h.service.GetDocument(r.Context(), invoiceID)
	if err != nil {
		h.logger.Error("get dian document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.XML)
}
