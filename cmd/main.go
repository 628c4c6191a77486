package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/jupiterclapton/cheffy/config"
	"github.com/jupiterclapton/cheffy/internal/adapters/primary/httpapi"
	"github.com/jupiterclapton/cheffy/internal/adapters/secondary/backend"
	"github.com/jupiterclapton/cheffy/internal/adapters/secondary/cache"
	"github.com/jupiterclapton/cheffy/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cheffy/internal/adapters/secondary/geocoding"
	"github.com/jupiterclapton/cheffy/internal/adapters/secondary/security"
	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/services"
)

const connectTimeout = 30 * time.Second

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	initLogger(cfg)
	slog.Info("🚀 Starting Cheffy web server", "env", cfg.Env, "port", cfg.Port, "api", cfg.APIBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("Error shutting down tracer", "error", err)
			}
		}()
	}

	// 4. Infrastructure : Redis (cache de lecture + révocation des tokens)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		panic(err)
	}
	if _, err := retry(ctx, "redis", func() (string, error) { return rdb.Ping(ctx).Result() }); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("✅ Connected to Redis")
	store := cache.NewRedisStore(rdb)

	// 5. Infrastructure : NATS JetStream (événements d'engagement)
	nc, err := retry(ctx, "nats", func() (*nats.Conn, error) { return nats.Connect(cfg.NatsUrl) })
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Drain()

	broker, err := eventbroker.NewNatsBroker(ctx, nc)
	if err != nil {
		slog.Error("Failed to init JetStream stream", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ NATS JetStream connected", "stream", eventbroker.StreamName)

	// 6. Sécurité : clé publique (optionnelle) et table du guard
	var pubKey []byte
	if cfg.JWTPublicKeyPath != "" {
		if pubKey, err = os.ReadFile(cfg.JWTPublicKeyPath); err != nil {
			slog.Error("Failed to read JWT public key", "path", cfg.JWTPublicKeyPath, "error", err)
			os.Exit(1)
		}
	}
	resolver, err := security.NewResolver(pubKey)
	if err != nil {
		slog.Error("Failed to init token resolver", "error", err)
		os.Exit(1)
	}
	if !resolver.Verifies() {
		slog.Warn("⚠️ JWT signatures are not verified (no public key configured)")
	}

	adminPaths, err := config.LoadRoutes(cfg.RoutesFile)
	if err != nil {
		slog.Error("Failed to load routes file", "path", cfg.RoutesFile, "error", err)
		os.Exit(1)
	}
	guard := domain.NewGuard(adminPaths)
	slog.Info("🛡️ Guard ready", "admin_paths", guard.AdminPaths())

	// 7. Wiring (Injection de dépendances) - Adapters -> Services
	api := backend.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	geocoder := geocoding.NewClient(cfg.GeocodingURL, cfg.GeocodingAPIKey, cfg.HTTPTimeout)

	sessionService := services.NewSessionService(api, resolver, store, geocoder)
	recipeService := services.NewRecipeService(api, api, store, cfg.CacheTTL, broker)
	socialService := services.NewSocialService(api, api, store, cfg.CacheTTL, broker)
	adminService := services.NewAdminService(api, api, store, cfg.CacheTTL)
	premiumService := services.NewPremiumService(api)

	router := httpapi.NewRouter(httpapi.Services{
		Sessions: sessionService,
		Recipes:  recipeService,
		Social:   socialService,
		Admin:    adminService,
		Premium:  premiumService,
	}, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		CookieSecure:   cfg.CookieSecure,
		Guard:          guard,
		TokenBinder:    backend.WithToken,
	})

	// 8. Démarrage Graceful
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("📡 Cheffy listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("👋 Server exited")
}

// --- HELPERS ---

// retry relance une connexion d'infrastructure avec un backoff exponentiel.
func retry[T any](ctx context.Context, name string, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(connectTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("⏳ Connection failed, retrying", "target", name, "in", next, "error", err)
		}),
	)
}

func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
