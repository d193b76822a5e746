package billing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/rbac"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// Handler serves invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validator: validator.New()}
}

// MountRoutes registers invoice routes. Sellers can commit sales and
// read invoices; cancelling is admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSeller)).Post("/", h.commit)
	r.With(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSeller)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSeller)).Get("/{id}", h.get)
	r.With(h.rbac.RequireAdmin).Post("/{id}/cancel", h.cancel)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	var req CommitSaleInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req.SellerID = shared.CurrentUserID(r.Context())
	req.SalesOrderID = nil
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	detail, err := h.service.CommitSale(r.Context(), req)
	if err != nil {
		h.logger.Error("commit sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, detail)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filters := InvoiceFilters{
		Page:   page,
		Limit:  limit,
		Kind:   r.URL.Query().Get("kind"),
		Status: r.URL.Query().Get("status"),
	}
	if sellerID, err := strconv.ParseInt(r.URL.Query().Get("seller_id"), 10, 64); err == nil {
		filters.SellerID = sellerID
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   list,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	if err := h.service.Cancel(r.Context(), id, shared.CurrentUserID(r.Context())); err != nil {
		h.logger.Error("cancel invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": StatusCancelled})
}
