package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/konta-pos/konta-pos/internal/auth"
	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/dian"
	"github.com/konta-pos/konta-pos/internal/expenses"
	"github.com/konta-pos/konta-pos/internal/inventory"
	"github.com/konta-pos/konta-pos/internal/masterdata/customers"
	"github.com/konta-pos/konta-pos/internal/masterdata/products"
	"github.com/konta-pos/konta-pos/internal/masterdata/suppliers"
	"github.com/konta-pos/konta-pos/internal/purchases"
	"github.com/konta-pos/konta-pos/internal/reports"
	"github.com/konta-pos/konta-pos/internal/returns"
	"github.com/konta-pos/konta-pos/internal/sales/cart"
	"github.com/konta-pos/konta-pos/internal/sales/orders"
	"github.com/konta-pos/konta-pos/internal/shared"
	"github.com/konta-pos/konta-pos/internal/users"
	"github.com/konta-pos/konta-pos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	ProductsHandler  *products.Handler
	CustomersHandler *customers.Handler
	SuppliersHandler *suppliers.Handler
	CartHandler      *cart.Handler
	InvoicesHandler  *billing.Handler
	ReturnsHandler   *returns.Handler
	OrdersHandler    *orders.Handler
	PurchasesHandler *purchases.Handler
	InventoryHandler *inventory.Handler
	ExpensesHandler  *expenses.Handler
	ReportsHandler   *reports.Handler
	DianHandler      *dian.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with Konta defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.CustomersHandler != nil {
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		}
		if params.SuppliersHandler != nil {
			r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		}
		if params.CartHandler != nil {
			r.Route("/cart", params.CartHandler.MountRoutes)
		}
		if params.InvoicesHandler != nil {
			r.Route("/invoices", params.InvoicesHandler.MountRoutes)
		}
		if params.ReturnsHandler != nil {
			r.Route("/returns", params.ReturnsHandler.MountRoutes)
		}
		if params.OrdersHandler != nil {
			r.Route("/orders", params.OrdersHandler.MountRoutes)
		}
		if params.PurchasesHandler != nil {
			r.Route("/purchases", params.PurchasesHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.ExpensesHandler != nil {
			r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.DianHandler != nil {
			r.Route("/dian", params.DianHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
