package main

import (
	"context"
	"net/http"
	"os"

	"github.com/autoaudit/autoaudit-backend/api/routes"
	"github.com/autoaudit/autoaudit-backend/internal/chat"
	"github.com/autoaudit/autoaudit-backend/internal/extraction"
	"github.com/autoaudit/autoaudit-backend/internal/invoices"
	"github.com/autoaudit/autoaudit-backend/internal/users"
	"github.com/autoaudit/autoaudit-backend/internal/vehicles"
	"github.com/autoaudit/autoaudit-backend/pkg/config"
	"github.com/autoaudit/autoaudit-backend/pkg/db"
	"github.com/autoaudit/autoaudit-backend/pkg/identity"
	"github.com/autoaudit/autoaudit-backend/pkg/llm"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/autoaudit/autoaudit-backend/pkg/metrics"
	"github.com/autoaudit/autoaudit-backend/pkg/migrate"
	"github.com/autoaudit/autoaudit-backend/pkg/redis"
	"github.com/autoaudit/autoaudit-backend/pkg/storage"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, rate limiting disabled")
	}

	objectStore, err := storage.NewMinioStore(context.Background(), cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	verifier, err := identity.NewJWTVerifier(cfg.Auth)
	if err != nil {
		logg.Error(context.Background(), "failed to create token verifier", err)
		os.Exit(1)
	}

	extractModel, err := llm.NewFromConfig(cfg.AI, cfg.AI.ExtractModel)
	if err != nil {
		logg.Error(context.Background(), "failed to create extraction model client", err)
		os.Exit(1)
	}
	chatModel, err := llm.NewFromConfig(cfg.AI, cfg.AI.ChatModel)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat model client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	aiMetrics := metrics.NewAIMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	vehiclesRepo := vehicles.NewRepository(dbClient.DB())
	invoicesRepo := invoices.NewRepository(dbClient.DB())
	chatRepo := chat.NewRepository(dbClient.DB())

	userService, err := users.NewService(users.ServiceParams{Repo: usersRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}
	vehicleService, err := vehicles.NewService(vehicles.ServiceParams{Repo: vehiclesRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create vehicle service", err)
		os.Exit(1)
	}
	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:    invoicesRepo,
		Storage: objectStore,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}
	extractionService, err := extraction.NewService(extraction.ServiceParams{
		Vehicles: vehiclesRepo,
		Invoices: invoicesRepo,
		Fetcher:  extraction.NewFetcher(cfg.Document),
		Model:    extractModel,
		Storage:  objectStore,
		Logger:   logg,
		Metrics:  aiMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create extraction service", err)
		os.Exit(1)
	}
	chatService, err := chat.NewService(chat.ServiceParams{
		Repo:     chatRepo,
		Invoices: invoicesRepo,
		Model:    chatModel,
		Logger:   logg,
		Metrics:  aiMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	routerParams := routes.RouterParams{
		Config:        cfg,
		Logger:        logg,
		Registry:      registry,
		Verifier:      verifier,
		Users:         userService,
		Redis:         redisClient,
		Storage:       objectStore,
		DBPinger:      dbClient,
		StoragePinger: objectStore,
		Vehicles:      vehicleService,
		Invoices:      invoiceService,
		Extraction:    extractionService,
		Chat:          chatService,
	}
	if redisClient != nil {
		routerParams.RedisPinger = redisClient
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(routerParams),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
