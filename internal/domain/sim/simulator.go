package sim

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/shared/id"
)

// Simulator owns every process, channel and lock of one simulation.
//
// All commands are serialized by mu: each runs to completion, emitting its
// events, before the next one starts. No command ever blocks the caller;
// "blocked" is only a state of a simulated process.
type Simulator struct {
	mu sync.RWMutex

	processes map[PID]*process // Protected by mu
	procOrder []PID            // Creation order, protected by mu
	channels  map[CID]*channel // Protected by mu
	chanOrder []CID            // Creation order, protected by mu
	nextPID   int
	nextCID   int
	paused    bool

	sink      events.Sink
	logger    *zap.Logger
	now       func() time.Time
	messageID func() string
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSink sets the event sink. Defaults to events.Discard.
func WithSink(sink events.Sink) Option {
	return func(s *Simulator) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the logger used for rejected commands.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMessageIDs overrides message id generation.
func WithMessageIDs(next func() string) Option {
	return func(s *Simulator) {
		if next != nil {
			s.messageID = next
		}
	}
}

// New creates an empty simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		processes: make(map[PID]*process),
		channels:  make(map[CID]*channel),
		sink:      events.Discard,
		logger:    zap.NewNop(),
		now:       time.Now,
		messageID: func() string { return id.NewMessageID().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// emit must be called with mu held.
func (s *Simulator) emit(t events.Type, payload any) {
	s.sink.Emit(events.New(t, payload, s.now()))
}

// CreateProcess adds a ready process with no locks and no wait.
func (s *Simulator) CreateProcess(name string, priority int) ProcessView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPID++
	p := &process{
		pid:      PID(fmt.Sprintf("P%d", s.nextPID)),
		name:     name,
		priority: priority,
		state:    StateReady,
	}
	s.processes[p.pid] = p
	s.procOrder = append(s.procOrder, p.pid)

	v := p.view()
	s.emit(events.ProcessCreated, v)
	return v
}

// CreateChannel adds a channel. An empty type means pipe and an empty name
// becomes "<type>-<cid>". Shared channels start with empty memory.
func (s *Simulator) CreateChannel(typ ChannelType, bufferSize int, name string) (ChannelView, error) {
	if typ == "" {
		typ = ChannelPipe
	}
	if !typ.Valid() {
		return ChannelView{}, fmt.Errorf("%w: unknown type %q", ErrInvalidChannel, typ)
	}
	if bufferSize < 0 {
		return ChannelView{}, fmt.Errorf("%w: negative buffer size %d", ErrInvalidChannel, bufferSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCID++
	c := &channel{
		cid:        CID(fmt.Sprintf("C%d", s.nextCID)),
		typ:        typ,
		name:       name,
		bufferSize: bufferSize,
		locks:      make(map[string]*lock),
	}
	if c.name == "" {
		c.name = fmt.Sprintf("%s-%s", typ, c.cid)
	}
	if typ == ChannelShared {
		c.memory = make(map[string]MemoryCell)
	}
	s.channels[c.cid] = c
	s.chanOrder = append(s.chanOrder, c.cid)

	v := c.view()
	s.emit(events.ChannelCreated, v)
	return v, nil
}

// KillProcess removes a process and every claim it holds. Each held lock is
// released through the normal hand-off path, the pid is purged from every
// waiter queue, and only then is the process deleted. Unknown pids return
// false and change nothing.
func (s *Simulator) KillProcess(pid PID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[pid]
	if !ok {
		s.logger.Debug("kill rejected: unknown process", zap.String("pid", string(pid)))
		return false
	}

	for _, lid := range append([]LockID(nil), p.heldLocks...) {
		s.releaseLocked(pid, lid)
	}

	for _, cid := range s.chanOrder {
		for _, l := range s.channels[cid].locks {
			l.removeWaiter(pid)
		}
	}

	p.waitingFor = nil
	p.state = StateTerminated
	delete(s.processes, pid)
	s.procOrder = removePID(s.procOrder, pid)

	s.emit(events.ProcessKilled, events.ProcessKilledPayload{PID: string(pid)})
	return true
}

// Reset drops every process and channel and restarts id allocation.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processes = make(map[PID]*process)
	s.channels = make(map[CID]*channel)
	s.procOrder = nil
	s.chanOrder = nil
	s.nextPID = 0
	s.nextCID = 0

	s.emit(events.SimReset, nil)
}

// Pause sets the advisory paused flag. Step still runs when called; drivers
// are expected to check Paused before ticking.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = true
	s.emit(events.SimPaused, nil)
}

// Resume clears the advisory paused flag.
func (s *Simulator) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = false
	s.emit(events.SimResumed, nil)
}

// Paused reports the advisory paused flag.
func (s *Simulator) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// State returns a deep copy of the whole simulation.
func (s *Simulator) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Processes: make(map[PID]ProcessView, len(s.processes)),
		Channels:  make(map[CID]ChannelView, len(s.channels)),
		Paused:    s.paused,
	}
	for pid, p := range s.processes {
		st.Processes[pid] = p.view()
	}
	for cid, c := range s.channels {
		st.Channels[cid] = c.view()
	}
	return st
}

// Process returns a copy of one process.
func (s *Simulator) Process(pid PID) (ProcessView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.processes[pid]
	if !ok {
		return ProcessView{}, false
	}
	return p.view(), true
}

// Channel returns a copy of one channel.
func (s *Simulator) Channel(cid CID) (ChannelView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.channels[cid]
	if !ok {
		return ChannelView{}, false
	}
	return c.view(), true
}

// Lock returns a copy of one lock. Locks that were never referenced do not exist.
func (s *Simulator) Lock(lid LockID) (LockView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.channels[lid.Channel]
	if !ok {
		return LockView{}, false
	}
	l, ok := c.locks[lid.Name]
	if !ok {
		return LockView{}, false
	}
	return l.view(), true
}

func removePID(pids []PID, pid PID) []PID {
	for i, p := range pids {
		if p == pid {
			return append(pids[:i], pids[i+1:]...)
		}
	}
	return pids
}
