package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/rbac"
)

// Handler serves dashboard report endpoints. Admin only.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAdmin)
	r.Get("/summary", h.summary)
	r.Get("/sellers", h.sellers)
	r.Get("/sellers/export", h.sellersCSV)
	r.Get("/top-products", h.topProducts)
	r.Get("/low-stock", h.lowStock)
}

// parsePeriod reads from/to query params, defaulting to the current
// month. To is exclusive.
func parsePeriod(r *http.Request) Period {
	now := time.Now()
	p := Period{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		To:   now.AddDate(0, 0, 1),
	}
	if from, err := time.Parse("2006-01-02", r.URL.Query().Get("from")); err == nil {
		p.From = from
	}
	if to, err := time.Parse("2006-01-02", r.URL.Query().Get("to")); err == nil {
		p.To = to.AddDate(0, 0, 1)
	}
	return p
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.SalesSummary(r.Context(), parsePeriod(r))
	if err != nil {
		h.logger.Error("sales summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) sellers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.SalesBySeller(r.Context(), parsePeriod(r))
	if err != nil {
		h.logger.Error("sales by seller", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []SellerSales{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sellers": rows})
}

func (h *Handler) sellersCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.SalesBySeller(r.Context(), parsePeriod(r))
	if err != nil {
		h.logger.Error("sales by seller export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload, err := SellerSalesCSV(rows)
	if err != nil {
		h.logger.Error("render csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ventas_por_vendedor.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.service.TopProducts(r.Context(), parsePeriod(r), limit)
	if err != nil {
		h.logger.Error("top products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []ProductSales{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.ParseInt(r.URL.Query().Get("threshold"), 10, 64)
	rows, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		h.logger.Error("low stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []LowStockProduct{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
}
