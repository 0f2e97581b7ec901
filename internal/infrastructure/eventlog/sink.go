package eventlog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/resilience"
)

// Appender is the write side of a Store.
type Appender interface {
	Append(ctx context.Context, e events.Event) error
}

// Stats counts what happened to emitted events.
type Stats struct {
	Written  uint64 `json:"written"`
	Dropped  uint64 `json:"dropped"`  // queue full or sink closed
	Failed   uint64 `json:"failed"`   // write error
	Rejected uint64 `json:"rejected"` // breaker open
}

// AsyncSink persists events off the command path. Emit never blocks: when
// the queue is full the event is dropped and counted. A single writer
// goroutine drains the queue through a circuit breaker, so a broken
// database costs one fast rejection per event instead of a retry cycle.
type AsyncSink struct {
	store   Appender
	breaker *resilience.Breaker
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool // Protected by mu
	queue  chan events.Event
	done   chan struct{}

	written  atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
	rejected atomic.Uint64
}

// SinkOption configures an AsyncSink.
type SinkOption func(*AsyncSink)

// WithBreaker replaces the default breaker.
func WithBreaker(b *resilience.Breaker) SinkOption {
	return func(s *AsyncSink) {
		if b != nil {
			s.breaker = b
		}
	}
}

// WithSinkLogger sets the logger for write failures.
func WithSinkLogger(logger *zap.Logger) SinkOption {
	return func(s *AsyncSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAsyncSink starts the writer goroutine. size is the queue capacity.
func NewAsyncSink(store Appender, size int, opts ...SinkOption) *AsyncSink {
	if size <= 0 {
		size = 1
	}
	s := &AsyncSink{
		store:  store,
		logger: zap.NewNop(),
		queue:  make(chan events.Event, size),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = resilience.New("eventlog", resilience.Settings{
			Timeout: 5 * time.Second,
			ReadyToTrip: func(c resilience.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to resilience.State) {
				s.logger.Warn("event log breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		})
	}

	go s.run()
	return s
}

// Emit implements events.Sink.
func (s *AsyncSink) Emit(e events.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- e:
	default:
		s.dropped.Add(1)
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)

	ctx := context.Background()
	for e := range s.queue {
		err := s.breaker.Do(func() error {
			return s.store.Append(ctx, e)
		})
		switch err {
		case nil:
			s.written.Add(1)
		case resilience.ErrCircuitOpen, resilience.ErrTooManyRequests:
			s.rejected.Add(1)
		default:
			s.failed.Add(1)
			s.logger.Warn("persist event failed",
				zap.String("type", string(e.Type)),
				zap.Error(err),
			)
		}
	}
}

// Close stops accepting events and waits until the queue is drained.
func (s *AsyncSink) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	<-s.done
	return nil
}

// Stats returns the current counters.
func (s *AsyncSink) Stats() Stats {
	return Stats{
		Written:  s.written.Load(),
		Dropped:  s.dropped.Load(),
		Failed:   s.failed.Load(),
		Rejected: s.rejected.Load(),
	}
}
