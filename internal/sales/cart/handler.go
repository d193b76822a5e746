package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/masterdata/products"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/rbac"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// Handler serves the POS cart endpoints. Each session gets its own
// cart; checkout hands the lines to billing and clears the cart only
// after the sale committed.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	products  *products.Service
	billing   *billing.Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, store *Store, productSvc *products.Service, billingSvc *billing.Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		products:  productSvc,
		billing:   billingSvc,
		rbac:      rbacMW,
		validator: validator.New(),
	}
}

// MountRoutes registers cart routes for both roles.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSeller))
	r.Get("/", h.show)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productID}", h.updateItem)
	r.Delete("/items/{productID}", h.removeItem)
	r.Delete("/", h.clear)
	r.Post("/checkout", h.checkout)
}

type cartResponse struct {
	Lines   []Line  `json:"lines"`
	Total   float64 `json:"total"`
	Warning string  `json:"warning,omitempty"`
}

func (h *Handler) cart(r *http.Request) *Cart {
	sess := shared.SessionFromContext(r.Context())
	return h.store.Get(sess.ID)
}

func (h *Handler) respondCart(w http.ResponseWriter, c *Cart, warning string) {
	lines := c.Lines()
	if lines == nil {
		lines = []Line{}
	}
	httpx.JSON(w, http.StatusOK, cartResponse{Lines: lines, Total: c.Total(), Warning: warning})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, h.cart(r), "")
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p, err := h.products.Get(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
			return
		}
		h.logger.Error("cart add item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	c := h.cart(r)
	warning, err := c.Add(Product{ID: p.ID, Name: p.Name, Price: p.Price, TaxRate: p.TaxRate, Stock: p.Stock})
	if err != nil {
		if errors.Is(err, ErrOutOfStock) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.respondCart(w, c, warning)
}

type updateItemRequest struct {
	Quantity *int64  `json:"quantity,omitempty"`
	Discount *string `json:"discount,omitempty"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	var req updateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}

	c := h.cart(r)
	var warning string
	if req.Quantity != nil {
		warning, err = c.UpdateQuantity(productID, *req.Quantity)
		if err != nil {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
	}
	if req.Discount != nil {
		// Raw string input so the clamp rules apply server-side too.
		if err := c.UpdateDiscount(productID, ParseDiscount(*req.Discount)); err != nil {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
	}
	h.respondCart(w, c, warning)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	c := h.cart(r)
	c.Remove(productID)
	h.respondCart(w, c, "")
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	c := h.cart(r)
	c.Clear()
	h.respondCart(w, c, "")
}

type checkoutRequest struct {
	CustomerID *int64 `json:"customer_id,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	c := h.cart(r)
	if c.Empty() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cart is empty")
		return
	}

	var req checkoutRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
			return
		}
	}

	input := billing.CommitSaleInput{
		Kind:       billing.KindPOS,
		CustomerID: req.CustomerID,
		SellerID:   shared.CurrentUserID(r.Context()),
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		input.IdempotencyKey = key
	}
	for _, line := range c.Lines() {
		input.Items = append(input.Items, billing.SaleItemInput{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			DiscountPercent: line.Discount,
		})
	}

	detail, err := h.billing.CommitSale(r.Context(), input)
	if err != nil {
		h.logger.Error("cart checkout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	c.Clear()
	httpx.JSON(w, http.StatusCreated, detail)
}
