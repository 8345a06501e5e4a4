package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/api/handlers"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/cache"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/config"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/health"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/metrics"
	repository "github.com/aaravmahajanofficial/secondhand-marketplace/internal/repositories"
	service "github.com/aaravmahajanofficial/secondhand-marketplace/internal/services"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/telemetry"
	"github.com/aaravmahajanofficial/secondhand-marketplace/pkg/sendgrid"
	stripeClient "github.com/aaravmahajanofficial/secondhand-marketplace/pkg/stripe"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing
	shutdownTracing, err := telemetry.Setup(context.Background(), cfg)
	if err != nil {
		slog.Error("❌ Error setting up tracing", "error", err.Error())
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	productCache := cache.NewRedisCache(redisClient, &cfg.Cache)

	// Optional integrations: card payments and order emails are skipped
	// when the keys are absent.
	var payments service.PaymentProvider
	if cfg.Stripe.APIKey != "" {
		payments = stripeClient.NewClient(cfg.Stripe.APIKey, cfg.Stripe.Currency)
	}

	var notifier service.CheckoutNotifier
	if cfg.SendGrid.APIKey != "" {
		notifier = sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	jwtKey := []byte(cfg.Security.JWTKey)

	productService := service.NewProductService(repos.Product, productCache, cfg.Cache.ProductTTL)
	productHandler := handlers.NewProductHandler(productService)
	cartService := service.NewCartService(repos.Cart, repos.Product)
	cartHandler := handlers.NewCartHandler(cartService)
	orderService := service.NewOrderService(repos.Order, repos.Cart, repos.Product, repos.Checkout, repos.User, productCache, payments, notifier)
	orderHandler := handlers.NewOrderHandler(orderService)
	purchaseService := service.NewPurchaseService(repos.Purchase, repos.Cart, repos.Checkout, repos.User, productCache)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{DB: repos.DB, RedisClient: redisClient})
	if err != nil {
		slog.Error("❌ Error setting up health checks", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()

	routerMux.HandleFunc("POST /api/v1/products", authMiddleware.Authenticate(productHandler.Create()))
	routerMux.HandleFunc("GET /api/v1/products", productHandler.List())
	routerMux.HandleFunc("GET /api/v1/products/categories", productHandler.Categories())
	routerMux.HandleFunc("GET /api/v1/products/user/{userId}", productHandler.ListBySeller())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.Get())
	routerMux.HandleFunc("PUT /api/v1/products/{id}", authMiddleware.Authenticate(productHandler.Update()))
	routerMux.HandleFunc("DELETE /api/v1/products/{id}", authMiddleware.Authenticate(productHandler.Delete()))

	routerMux.HandleFunc("GET /api/v1/cart", authMiddleware.Authenticate(cartHandler.Get()))
	routerMux.HandleFunc("POST /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/cart/items/{itemId}", authMiddleware.Authenticate(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{itemId}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/cart", authMiddleware.Authenticate(cartHandler.Clear()))

	routerMux.HandleFunc("POST /api/v1/orders/checkout", authMiddleware.Authenticate(orderHandler.Checkout()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.List()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.Get()))
	routerMux.HandleFunc("PATCH /api/v1/orders/{id}/status", authMiddleware.Authenticate(orderHandler.UpdateStatus()))

	routerMux.HandleFunc("POST /api/v1/purchases/checkout", authMiddleware.Authenticate(purchaseHandler.Checkout()))
	routerMux.HandleFunc("GET /api/v1/purchases/history", authMiddleware.Authenticate(purchaseHandler.History()))
	routerMux.HandleFunc("GET /api/v1/purchases/sales", authMiddleware.Authenticate(purchaseHandler.Sales()))
	routerMux.HandleFunc("GET /api/v1/purchases/{id}", authMiddleware.Authenticate(purchaseHandler.Get()))
	routerMux.HandleFunc("PATCH /api/v1/purchases/{id}/status", authMiddleware.Authenticate(purchaseHandler.UpdateStatus()))

	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "secondhand-marketplace")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("❌ Server shutdown failed", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server stopped gracefully")
	}

	if err := redisClient.Close(); err != nil {
		slog.Warn("⚠️ Error closing redis connection", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(ctx); err != nil {
		slog.Warn("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}
