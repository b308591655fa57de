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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/nutrimed/internal/analyzer"
	"github.com/mmynk/nutrimed/internal/api"
	"github.com/mmynk/nutrimed/internal/auth"
	"github.com/mmynk/nutrimed/internal/config"
	"github.com/mmynk/nutrimed/internal/metrics"
	"github.com/mmynk/nutrimed/internal/middleware"
	"github.com/mmynk/nutrimed/internal/service"
	"github.com/mmynk/nutrimed/internal/storage"
	"github.com/mmynk/nutrimed/internal/storage/cache"
	"github.com/mmynk/nutrimed/internal/storage/postgres"
	"github.com/mmynk/nutrimed/internal/storage/sqlite"
	"github.com/mmynk/nutrimed/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Setup(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DatabaseDSN)
	default:
		return sqlite.New(cfg.DBPath)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate storage: %w", err)
	}
	logger.Info("Storage initialized", "driver", cfg.DBDriver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	users := cache.NewUserCache(store, cfg.UserCacheTTL)
	tokens := auth.NewJWTManager(cfg.JWTSecret)
	authenticator := auth.NewPasswordAuthenticator(users, auth.BcryptHasher{Cost: cfg.BcryptCost})

	a := analyzer.NewOpenAIClient(analyzer.OpenAIConfig{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.AnalyzerMaxTokens,
		Timeout:   cfg.AnalyzerTimeout,
	}, logger)
	if _, ok := a.(analyzer.Unconfigured); ok {
		logger.Warn("OPENAI_API_KEY is not set, /analyze will answer 503")
	}

	handler := api.NewHandler(api.Config{
		Auth:           service.NewAuthService(authenticator, tokens, users, logger, m),
		Analyses:       service.NewAnalysisService(store, a, logger, m),
		Authenticator:  middleware.NewAuthenticator(tokens, logger, m),
		Logger:         logger,
		Store:          store,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	root := middleware.Chain(handler.Routes(),
		middleware.Recover(logger),
		middleware.Metrics(m),
		middleware.Logging(logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(root, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
