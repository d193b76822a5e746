package orders

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

// Handler serves sales-order endpoints.
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

// MountRoutes registers order routes. Creation is admin only (orders
// are assigned to sellers); execution checks the assignment in the
// service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAdmin).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSeller)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSeller)).Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSeller)).Post("/{id}/execute", h.execute)
	r.With(h.rbac.RequireAdmin).Post("/{id}/cancel", h.cancel)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req.CreatedBy = shared.CurrentUserID(r.Context())

	detail, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, detail)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filters := OrderFilters{
		Page:   page,
		Limit:  limit,
		Status: r.URL.Query().Get("status"),
	}
	// Sellers only see their own orders.
	if shared.CurrentRole(r.Context()) == rbac.RoleSeller {
		filters.SellerID = shared.CurrentUserID(r.Context())
	} else if sellerID, err := strconv.ParseInt(r.URL.Query().Get("seller_id"), 10, 64); err == nil {
		filters.SellerID = sellerID
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
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
		"orders":     list,
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
		h.logger.Error("get order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	ctx := r.Context()
	invoice, err := h.service.Execute(ctx, id, shared.CurrentUserID(ctx), shared.CurrentRole(ctx))
	if err != nil {
		h.logger.Error("execute order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	ctx := r.Context()
	if err := h.service.Cancel(ctx, id, shared.CurrentUserID(ctx), shared.CurrentRole(ctx)); err != nil {
		h.logger.Error("cancel order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": StatusCancelled})
}
