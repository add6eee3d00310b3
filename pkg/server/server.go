// Package server wires the node pool, the content store and the range
// processor into a long-running service and a one-shot fetch runner.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/execution-body/pkg/api"
	"github.com/ethpandaops/execution-body/pkg/config"
	"github.com/ethpandaops/execution-body/pkg/ethereum"
	"github.com/ethpandaops/execution-body/pkg/processor"
	"github.com/ethpandaops/execution-body/pkg/redis"
	"github.com/ethpandaops/execution-body/pkg/store"
)

const readHeaderTimeout = 120 * time.Second

type Server struct {
	log       logrus.FieldLogger
	config    *config.Config
	namespace string

	redis     *r.Client
	pool      *ethereum.Pool
	store     *store.Store
	processor *processor.Manager

	metricsServer *http.Server
	pprofServer   *http.Server
	healthServer  *http.Server
	apiServer     *http.Server
}

func NewServer(log logrus.FieldLogger, namespace string, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	pool := ethereum.NewPool(log.WithField("component", "ethereum"), namespace, &cfg.Ethereum)
	bodies := store.New(log, redisClient, cfg.Redis.Prefix, cfg.Redis.TTL)
	manager := processor.NewManager(log, &cfg.Processor, pool, bodies)

	s := &Server{
		log:       log,
		config:    cfg,
		namespace: namespace,
		redis:     redisClient,
		pool:      pool,
		store:     bodies,
		processor: manager,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	s.metricsServer = &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if cfg.PProfAddr != nil {
		s.pprofServer = &http.Server{
			Addr:              *cfg.PProfAddr,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	if cfg.HealthCheckAddr != nil {
		s.healthServer = &http.Server{
			Addr:              *cfg.HealthCheckAddr,
			Handler:           s.healthHandler(),
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	if cfg.APIAddr != nil {
		apiMux := http.NewServeMux()
		api.NewHandler(log, manager, bodies).RegisterRoutes(apiMux)

		s.apiServer = &http.Server{
			Addr:              *cfg.APIAddr,
			Handler:           apiMux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	return s, nil
}

// Start runs the pool and the HTTP servers until SIGINT, SIGTERM or ctx ends.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	for name, srv := range map[string]*http.Server{
		"metrics":     s.metricsServer,
		"pprof":       s.pprofServer,
		"healthcheck": s.healthServer,
		"api":         s.apiServer,
	} {
		if srv == nil {
			continue
		}

		g.Go(func() error {
			s.log.WithField("addr", srv.Addr).Infof("Starting %s server", name)

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", name, err)
			}

			return nil
		})
	}

	// Start ethereum pool
	g.Go(func() error {
		s.pool.Start(ctx)

		return nil
	})

	// Wait for shutdown signal
	g.Go(func() error {
		<-ctx.Done()

		return s.stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Fetch processes one block range and shuts everything down afterwards.
func (s *Server) Fetch(ctx context.Context, from, to uint64) (*processor.Stats, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.pool.Start(ctx)

	stats, err := s.processor.ProcessRange(ctx, from, to)

	if stopErr := s.stop(context.WithoutCancel(ctx)); stopErr != nil {
		s.log.WithError(stopErr).Error("failed to stop cleanly")
	}

	return stats, err
}

func (s *Server) stop(ctx context.Context) error {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Starting graceful shutdown...")

	if err := s.pool.Stop(cleanupCtx); err != nil {
		s.log.WithError(err).Error("failed to stop pool")
	}

	for _, srv := range []*http.Server{s.apiServer, s.healthServer, s.pprofServer, s.metricsServer} {
		if srv == nil {
			continue
		}

		if err := srv.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).WithField("addr", srv.Addr).Error("failed to shutdown http server")
		}
	}

	// Close Redis connection
	if s.redis != nil {
		s.log.Info("Closing Redis connection...")

		if err := s.redis.Close(); err != nil {
			s.log.WithError(err).Error("failed to close redis")
		}
	}

	s.log.Info("Server stopped gracefully")

	return nil
}

// healthHandler reports 200 once at least one execution node is healthy.
func (s *Server) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !s.pool.HasHealthyExecutionNodes() {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.WriteHeader(http.StatusOK)
	})
}
