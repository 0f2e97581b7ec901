package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/eventlog"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/monitoring"
)

// EventStore is the read side of the event log.
type EventStore interface {
	Recent(ctx context.Context, limit int) ([]eventlog.Record, error)
	Export(ctx context.Context, w io.Writer) (int, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sim     *sim.Simulator
	store   EventStore          // nil when the event log is disabled
	metrics *monitoring.Metrics // optional
	logger  *zap.Logger

	defaultBufferSize int
	now               func() time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithEventStore enables the /api/events routes.
func WithEventStore(store EventStore) Option {
	return func(h *Handlers) { h.store = store }
}

// WithMetrics counts steps.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(h *Handlers) { h.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDefaultBufferSize sets the capacity used when a channel request
// omits bufferSize.
func WithDefaultBufferSize(n int) Option {
	return func(h *Handlers) { h.defaultBufferSize = n }
}

// WithClock overrides the clock used for default process names.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandlers creates a new handler set
func NewHandlers(s *sim.Simulator, opts ...Option) *Handlers {
	h := &Handlers{
		sim:               s,
		logger:            zap.NewNop(),
		defaultBufferSize: sim.DefaultBufferSize,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/process", h.CreateProcess)
	api.POST("/channel", h.CreateChannel)
	api.POST("/send", h.Send)
	api.POST("/step", h.Step)
	api.POST("/kill", h.Kill)
	api.POST("/acquireLock", h.AcquireLock)
	api.POST("/releaseLock", h.ReleaseLock)
	api.POST("/reset", h.Reset)
	api.POST("/pause", h.Pause)
	api.POST("/resume", h.Resume)
	api.POST("/detect", h.Detect)

	api.GET("/waitfor", h.WaitFor)
	api.GET("/state", h.State)
	api.GET("/events", h.Events)
	api.GET("/events/export", h.ExportEvents)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	st := h.sim.State()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"processes": len(st.Processes),
		"channels":  len(st.Channels),
		"paused":    st.Paused,
		"eventlog":  h.store != nil,
	})
}

// State returns the full simulation snapshot.
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.sim.State())
}

func fail(c *gin.Context, status int, err string) {
	c.AbortWithStatusJSON(status, gin.H{
		"ok":    false,
		"error": err,
	})
}
