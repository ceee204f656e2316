package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anayakapoor/luxethreads-backend/api/controllers"
	"github.com/anayakapoor/luxethreads-backend/api/routes"
	authsvc "github.com/anayakapoor/luxethreads-backend/internal/auth"
	cartsvc "github.com/anayakapoor/luxethreads-backend/internal/cart"
	chatsvc "github.com/anayakapoor/luxethreads-backend/internal/chat"
	checkoutsvc "github.com/anayakapoor/luxethreads-backend/internal/checkout"
	"github.com/anayakapoor/luxethreads-backend/internal/checkout/pricing"
	ordersvc "github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/payments"
	productsvc "github.com/anayakapoor/luxethreads-backend/internal/products"
	userssvc "github.com/anayakapoor/luxethreads-backend/internal/users"
	"github.com/anayakapoor/luxethreads-backend/pkg/auth/session"
	"github.com/anayakapoor/luxethreads-backend/pkg/config"
	"github.com/anayakapoor/luxethreads-backend/pkg/db"
	"github.com/anayakapoor/luxethreads-backend/pkg/llm"
	"github.com/anayakapoor/luxethreads-backend/pkg/logger"
	"github.com/anayakapoor/luxethreads-backend/pkg/metrics"
	"github.com/anayakapoor/luxethreads-backend/pkg/migrate"
	"github.com/anayakapoor/luxethreads-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := userssvc.NewRepository(dbClient.DB())
	productRepo := productsvc.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	orderRepo := ordersvc.NewRepository(dbClient.DB())
	chatRepo := chatsvc.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		DB:             dbClient,
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := userssvc.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	productsService, err := productsvc.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	gateway, err := payments.NewSimulatedGateway(cfg.Gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	ordersService, err := ordersvc.NewService(dbClient, orderRepo, productRepo, userRepo, gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	pricingEngine, err := pricing.New(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing engine", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	checkoutService, err := checkoutsvc.NewService(cartService, ordersService, userRepo, pricingEngine, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	// Chat degrades to keyword routing when no model API key is configured.
	var completer llm.Completer
	if cfg.LLM.APIKey != "" {
		llmClient, llmErr := llm.New(cfg.LLM)
		if llmErr != nil {
			logg.Error(context.Background(), "failed to create llm client", llmErr)
			os.Exit(1)
		}
		completer = llmClient
	} else {
		logg.Warn(context.Background(), "no llm api key configured, chat falls back to keyword routing")
	}

	chatService, err := chatsvc.NewService(dbClient, chatRepo, userRepo, productRepo, orderRepo,
		chatsvc.NewClassifier(completer), cfg.Chat)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		HealthDeps: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Idempotency:    redisClient,
		SessionChecker: sessionManager,
		Auth:           authService,
		Users:          usersService,
		Products:       productsService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         ordersService,
		Chat:           chatService,
		Gateway:        gateway,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
