package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chive-pub/chive-sub016/internal/config"
	"github.com/chive-pub/chive-sub016/internal/firehose"
	"github.com/chive-pub/chive-sub016/internal/infra/cachemem"
	"github.com/chive-pub/chive-sub016/internal/infra/cacheredis"
	"github.com/chive-pub/chive-sub016/internal/infra/db"
	httpinfra "github.com/chive-pub/chive-sub016/internal/infra/http"
	"github.com/chive-pub/chive-sub016/internal/infra/identity"
	"github.com/chive-pub/chive-sub016/internal/infra/pds"
	"github.com/chive-pub/chive-sub016/internal/metrics"
	"github.com/chive-pub/chive-sub016/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	store, err := db.NewStore(cfg)
	if err != nil {
		logger.Error("failed to init store", "error", err)
		os.Exit(1)
	}
	records := db.NewRecordRepository(store.DB)
	origins := db.NewOriginRepository(store.DB)

	var cache identity.EndpointCache = cachemem.New()
	if cfg.RedisAddr != "" {
		redisCache, err := cacheredis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis cache unavailable, using in-process cache", "error", err)
		} else {
			cache = redisCache
			logger.Info("identity cache backed by redis", "addr", cfg.RedisAddr)
		}
	}

	resolver := identity.NewResolver(cfg.PLCDirectoryURL, cache, cfg.IdentityCacheTTL(), cfg.RecordFetchTimeout(), logger.With("component", "identity"))
	client := pds.NewClient(cfg.OriginProbeTimeout(), cfg.RecordFetchTimeout())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	verifier := usecase.NewStalenessVerifier(records, resolver, client, cfg.StalenessThreshold(), logger.With("component", "staleness"))
	versions := usecase.NewVersionChainResolver(records, cfg.MaxVersions)
	registrar := usecase.NewOriginRegistrar(origins, client, records, cfg.ScanPageSize, logger.With("component", "registrar"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.FirehoseURL != "" {
		streamLogger := logger.With("component", "firehose")
		dialer := firehose.NewWebsocketDialer(cfg.FirehoseURL, func(ctx context.Context, frame []byte) error {
			streamLogger.Debug("stream frame received", "bytes", len(frame))
			return nil
		}, streamLogger)
		policy := firehose.NewReconnectPolicy(firehose.ReconnectOptions{
			BaseDelay:     cfg.FirehoseBaseDelay(),
			MaxDelay:      cfg.FirehoseMaxDelay(),
			MaxAttempts:   cfg.FirehoseMaxAttempts,
			DisableJitter: !cfg.FirehoseJitter,
		})
		consumer := firehose.NewConsumer(dialer, policy, streamLogger, m)
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				streamLogger.Error("stream consumer stopped", "error", err)
			}
		}()
	}

	srv := httpinfra.NewServer(cfg, httpinfra.ServerDeps{
		Verifier:       verifier,
		Versions:       versions,
		Registrar:      registrar,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:         logger.With("component", "http"),
	})
	if err := srv.Run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
