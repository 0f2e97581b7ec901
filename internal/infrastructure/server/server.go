package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/ipcsim/internal/api/http"
	"github.com/GriffinCanCode/ipcsim/internal/api/middleware"
	"github.com/GriffinCanCode/ipcsim/internal/api/ws"
	"github.com/GriffinCanCode/ipcsim/internal/domain/driver"
	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/config"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/eventlog"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	sim     *sim.Simulator
	sinks   *events.Fanout
	hub     *ws.Hub
	store   *eventlog.Store
	tracer  *tracing.Tracer
	driver  *driver.Driver
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing simulation server",
		zap.String("port", cfg.Server.Port),
		zap.Bool("eventlog", cfg.EventLog.Enabled),
		zap.Duration("tick", cfg.Simulator.TickInterval),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("ipcsim", logger.Logger)

	sinks := events.NewFanout(
		logging.NewEventSink(logger),
		monitoring.NewEventSink(metrics),
	)

	var store *eventlog.Store
	if cfg.EventLog.Enabled {
		store, err = eventlog.Open(cfg.EventLog.Path)
		if err != nil {
			tracer.Close()
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		async := eventlog.NewAsyncSink(store, cfg.EventLog.Buffer,
			eventlog.WithSinkLogger(logger.Logger),
		)
		sinks.Add(async)
		registerSinkStats(metrics, async, logger)
		logger.Info("Event log opened", zap.String("path", cfg.EventLog.Path))
	}

	s := sim.New(
		sim.WithSink(sinks),
		sim.WithLogger(logger.Named("sim")),
	)

	hub := ws.NewHub(s, logger.Logger, metrics)
	sinks.Add(hub)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.RequestLogger(logger.Logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	opts := []http.Option{
		http.WithMetrics(metrics),
		http.WithLogger(logger.Logger),
		http.WithDefaultBufferSize(cfg.Simulator.DefaultBufferSize),
	}
	if store != nil {
		opts = append(opts, http.WithEventStore(store))
	}
	http.NewHandlers(s, opts...).Register(router)

	router.GET("/ws", hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	tick := driver.New(s, cfg.Simulator.TickInterval,
		driver.WithLogger(logger.Named("driver")),
		driver.OnStep(func([][]sim.PID) { metrics.RecordStep() }),
	)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		sim:     s,
		sinks:   sinks,
		hub:     hub,
		store:   store,
		tracer:  tracer,
		driver:  tick,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

func registerSinkStats(m *monitoring.Metrics, sink *eventlog.AsyncSink, logger *logging.Logger) {
	counters := []struct {
		name, help string
		fn         func() float64
	}{
		{"ipcsim_eventlog_written_total", "Events persisted to the event log.", func() float64 { return float64(sink.Stats().Written) }},
		{"ipcsim_eventlog_dropped_total", "Events dropped because the event log queue was full.", func() float64 { return float64(sink.Stats().Dropped) }},
		{"ipcsim_eventlog_failed_total", "Events whose write failed.", func() float64 { return float64(sink.Stats().Failed) }},
		{"ipcsim_eventlog_rejected_total", "Events rejected while the event log breaker was open.", func() float64 { return float64(sink.Stats().Rejected) }},
	}
	for _, c := range counters {
		if err := m.RegisterCounterFunc(c.name, c.help, c.fn); err != nil {
			logger.Warn("Failed to register event log counter", zap.String("name", c.name), zap.Error(err))
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Simulator returns the simulator the server drives.
func (s *Server) Simulator() *sim.Simulator {
	return s.sim
}

// Run serves HTTP and ticks the simulator until ctx is done or either of
// them fails, then shuts the HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.driver.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("driver: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close releases every resource. Sinks are closed first so queued events
// reach the event log before the store closes.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	err := s.sinks.Close()
	if s.store != nil {
		err = multierr.Append(err, s.store.Close())
	}
	err = multierr.Append(err, s.tracer.Close())
	err = multierr.Append(err, s.logger.Close())
	return err
}
