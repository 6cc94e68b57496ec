package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/layer-3/flowkey/adapters/events"
	"github.com/layer-3/flowkey/adapters/store"
	"github.com/layer-3/flowkey/adapters/tokenizer"
	"github.com/layer-3/flowkey/adapters/verifier"
	"github.com/layer-3/flowkey/config"
	"github.com/layer-3/flowkey/logger"
	"github.com/layer-3/flowkey/metrics"
	"github.com/layer-3/flowkey/ports"
	"github.com/layer-3/flowkey/service"
	transport "github.com/layer-3/flowkey/transport/http"
)

const redisPingTimeout = 5 * time.Second

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP login service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				log.Error("failed to start", zap.Error(err))
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("failed to release resources", zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.Run(ctx)
		},
	}
}

// app is the wired service: stores, verifier, tokenizer, events and router
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	handler  http.Handler
	sweepers []store.Sweeper
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	var redisClient *redis.Client
	if cfg.Store.Driver == "redis" || cfg.Events.Driver == events.DriverRedis {
		opts, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
	}

	var (
		nonces     ports.NonceStore
		revocation ports.RevocationStore
		pending    func() int
	)
	switch cfg.Store.Driver {
	case "redis":
		nonces = store.NewRedisNonceStore(redisClient, cfg.Auth.ChallengeTTL)
		revocation = store.NewRedisStore(redisClient)
	case "bolt":
		boltStore, err := store.OpenBoltStore(cfg.Store.BoltPath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, boltStore.Close)

		memNonces := store.NewMemoryNonceStore(cfg.Auth.ChallengeTTL)
		nonces, revocation = memNonces, boltStore
		pending = memNonces.Len
		a.sweepers = append(a.sweepers, memNonces, boltStore)
	default:
		memNonces := store.NewMemoryNonceStore(cfg.Auth.ChallengeTTL)
		memRevocation := store.NewMemoryStore()
		nonces, revocation = memNonces, memRevocation
		pending = memNonces.Len
		a.sweepers = append(a.sweepers, memNonces, memRevocation)
	}

	sigVerifier, err := verifier.FromNames(cfg.Auth.Schemes)
	if err != nil {
		return err
	}

	eventPub, closePub, err := events.NewPublisher(cfg.Events.Driver, redisClient, events.NewZapLogger(log.Named("events")))
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closePub)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	if pending != nil {
		metrics.RegisterPendingChallenges(reg, pending)
	}

	authService := service.NewAuthService(
		nonces,
		sigVerifier,
		tokenizer.NewJWTTokenizer([]byte(cfg.Auth.JWTSecret)),
		revocation,
		eventPub,
		m,
		service.WithSessionTTL(cfg.Auth.SessionTTL),
		service.WithLogger(log),
	)
	log.Info("auth configured",
		zap.Duration("session_ttl", authService.SessionTTL()),
		zap.Duration("challenge_ttl", cfg.Auth.ChallengeTTL),
		zap.String("events", cfg.Events.Driver),
	)

	var limiter *transport.RateLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = transport.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		a.sweepers = append(a.sweepers, limiter)
	}

	a.handler = transport.SetupRouter(authService, service.NewProfileService(log), transport.RouterOptions{
		BasePath:       cfg.Server.BasePath,
		AllowOrigins:   cfg.CORS.AllowOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Limiter:        limiter,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         log,
	})

	return nil
}

// Run serves HTTP until ctx is done, then drains in-flight requests
func (a *app) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go store.RunJanitor(janitorCtx, a.cfg.Store.SweepInterval, a.logger.Named("janitor"), a.sweepers...)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("flowkey listening",
			zap.String("addr", srv.Addr),
			zap.String("base_path", a.cfg.Server.BasePath),
			zap.String("store", a.cfg.Store.Driver),
			zap.Strings("schemes", a.cfg.Auth.Schemes),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases publishers and connections in reverse order of creation
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
