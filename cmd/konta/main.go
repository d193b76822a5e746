package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/konta-pos/konta-pos/internal/app"
	"github.com/konta-pos/konta-pos/internal/auth"
	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/dian"
	"github.com/konta-pos/konta-pos/internal/expenses"
	"github.com/konta-pos/konta-pos/internal/inventory"
	"github.com/konta-pos/konta-pos/internal/masterdata/customers"
	"github.com/konta-pos/konta-pos/internal/masterdata/products"
	"github.com/konta-pos/konta-pos/internal/masterdata/suppliers"
	"github.com/konta-pos/konta-pos/internal/purchases"
	"github.com/konta-pos/konta-pos/internal/rbac"
	"github.com/konta-pos/konta-pos/internal/reports"
	"github.com/konta-pos/konta-pos/internal/returns"
	"github.com/konta-pos/konta-pos/internal/sales/cart"
	"github.com/konta-pos/konta-pos/internal/sales/orders"
	"github.com/konta-pos/konta-pos/internal/shared"
	"github.com/konta-pos/konta-pos/internal/users"
	"github.com/konta-pos/konta-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "konta_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	idemStore := shared.NewIdempotencyStore(dbpool)

	rbacMW := rbac.Middleware{Logger: logger}

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, csrfManager)

	usersService := users.NewService(users.NewRepository(dbpool))
	usersHandler := users.NewHandler(logger, usersService, rbacMW)

	productsService := products.NewService(products.NewRepository(dbpool))
	productsHandler := products.NewHandler(logger, productsService, rbacMW)

	customersService := customers.NewService(customers.NewRepository(dbpool))
	customersHandler := customers.NewHandler(logger, customersService, rbacMW)

	suppliersService := suppliers.NewService(suppliers.NewRepository(dbpool))
	suppliersHandler := suppliers.NewHandler(logger, suppliersService, rbacMW)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, idemStore, auditLogger, logger)
	billingHandler := billing.NewHandler(logger, billingService, rbacMW)

	cartStore := cart.NewStore()
	cartHandler := cart.NewHandler(logger, cartStore, productsService, billingService, rbacMW)

	returnsService := returns.NewService(returns.NewRepository(dbpool), auditLogger, logger)
	returnsHandler := returns.NewHandler(logger, returnsService, rbacMW)

	ordersService := orders.NewService(orders.NewRepository(dbpool), productsService, billingService, auditLogger, logger)
	ordersHandler := orders.NewHandler(logger, ordersService, rbacMW)

	purchasesService := purchases.NewService(purchases.NewRepository(dbpool), auditLogger, logger)
	purchasesHandler := purchases.NewHandler(logger, purchasesService, rbacMW)

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMW)

	expensesService := expenses.NewService(expenses.NewRepository(dbpool))
	expensesHandler := expenses.NewHandler(logger, expensesService, rbacMW)

	reportsCache := reports.NewCache(redisClient, 10*time.Minute)
	reportsService := reports.NewService(reports.NewRepository(dbpool), reportsCache)
	reportsHandler := reports.NewHandler(logger, reportsService, rbacMW)

	dianGenerator := dian.NewGenerator(dian.CompanyInfo{
		Name:             cfg.DianCompanyName,
		NIT:              cfg.DianCompanyNIT,
		ResolutionNumber: cfg.DianResolutionNumber,
		InvoicePrefix:    cfg.DianInvoicePrefix,
	})
	dianService := dian.NewService(dianGenerator, dian.NewUnsignedSigner(), billingRepo, customersService, dian.NewDocumentStore(dbpool), logger)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	dianHandler := dian.NewHandler(logger, dianService, jobsClient, rbacMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,

		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		ProductsHandler:  productsHandler,
		CustomersHandler: customersHandler,
		SuppliersHandler: suppliersHandler,
		CartHandler:      cartHandler,
		InvoicesHandler:  billingHandler,
		ReturnsHandler:   returnsHandler,
		OrdersHandler:    ordersHandler,
		PurchasesHandler: purchasesHandler,
		InventoryHandler: inventoryHandler,
		ExpensesHandler:  expensesHandler,
		ReportsHandler:   reportsHandler,
		DianHandler:      dianHandler,
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
