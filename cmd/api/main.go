package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-variant-cleanup/internal/application"
	"shopify-variant-cleanup/internal/application/webhook_handlers"
	"shopify-variant-cleanup/internal/config"
	apiinfra "shopify-variant-cleanup/internal/infrastructure/api"
	"shopify-variant-cleanup/internal/infrastructure/cache"
	"shopify-variant-cleanup/internal/infrastructure/encryption"
	"shopify-variant-cleanup/internal/infrastructure/events"
	"shopify-variant-cleanup/internal/infrastructure/metrics"
	"shopify-variant-cleanup/internal/infrastructure/pubsub"
	"shopify-variant-cleanup/internal/infrastructure/repository"
	shopifyinfra "shopify-variant-cleanup/internal/infrastructure/shopify"
	"shopify-variant-cleanup/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	securitymiddleware "shopify-variant-cleanup/internal/infrastructure/middleware"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err == nil {
		err = mongoClient.Ping(connectCtx, nil)
	}
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongoClient.Database(cfg.Mongo.Database)

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	repo := repository.NewMongoRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure MongoDB indexes")
	}

	clientConfig := shopifyinfra.ClientConfig{
		APIKey:     cfg.Shopify.APIKey,
		APISecret:  cfg.Shopify.APISecret,
		APIVersion: cfg.Shopify.APIVersion,
		Retries:    cfg.Shopify.Retries,
		HTTPClient: &http.Client{Timeout: cfg.Shopify.RequestTimeout},
	}
	shopifyClient := shopifyinfra.NewClient(clientConfig, logger)
	clientPool := shopifyinfra.NewClientPool(clientConfig, shopifyinfra.MetafieldRef{
		Namespace: cfg.Shopify.MetafieldNamespace,
		Key:       cfg.Shopify.MetafieldKey,
	}, logger)

	var tokenValidator ports.TokenValidator
	if cfg.Shopify.ValidateTokens {
		tokenValidator = shopifyinfra.NewTokenManager(shopifyClient, logger)
	}

	// Active shop registry, seeded from the store
	registry := application.NewActiveShopRegistry()
	loaded, err := registry.Load(ctx, repo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load active shops")
	}
	logger.Info().Int("shops", loaded).Msg("Loaded active shops")

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.New(promRegistry, registry.Len)

	// Deletion outcomes fan out in process and, when configured, to RabbitMQ
	outcomes := pubsub.NewOutcomePubSub(logger, 100)
	if cfg.RabbitMQ.URL != "" {
		publisher, err := events.NewOutcomePublisher(cfg.RabbitMQ, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect outcome publisher")
		}
		defer publisher.Close()
		go publisher.Forward(ctx, outcomes.Subscribe(ctx, nil))
	}

	// Initialize application services
	webhookManager := application.NewWebhookManager(
		shopifyClient,
		repo,
		logger,
		cfg.AppURL+"/webhooks",
	)

	shopService := application.NewShopService(
		repo,
		encryptionService,
		tokenValidator,
		clientPool,
		registry,
		webhookManager,
		logger,
	)

	resolver := application.NewVariantResolver(logger)
	deleter := application.NewVariantDeleter(logger, pipelineMetrics, outcomes, cfg.Shopify.RequestTimeout)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(logger, shopService, resolver, deleter, pipelineMetrics))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, shopService))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewComplianceHandler(logger, shopService))

	// Webhook delivery dedup
	var deliveryGuard ports.DeliveryGuard = cache.NoopDeliveryGuard{}
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		deliveryGuard = cache.NewRedisDeliveryGuard(redisClient, cfg.Redis.DedupTTL)
	}

	webhookAPI := apiinfra.NewWebhookAPI(
		shopifyinfra.NewWebhookVerifier(cfg.Shopify.APIKey, cfg.Shopify.APISecret),
		deliveryGuard,
		shopService,
		webhookDispatcher,
		pipelineMetrics,
		logger,
	)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.AuditLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://admin.shopify.com", "https://*.myshopify.com"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"activeShops": registry.Len(),
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // The URL pointing to API definition
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Webhook endpoint: POST /webhooks
	r.Post("/webhooks", webhookAPI.HandleWebhook)

	// Embedded app UI
	r.Group(func(r chi.Router) {
		r.Use(securitymiddleware.FrameAncestorsMiddleware())
		r.Use(securitymiddleware.ActiveShopMiddleware(registry, logger))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"shop":   r.URL.Query().Get("shop"),
				"status": "installed",
			})
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	// In-flight handlers finish; deletion batches they started are not awaited
	webhookDispatcher.Wait()
	logger.Info().Msg("Server stopped")
}
