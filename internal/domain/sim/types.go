package sim

import (
	"encoding/json"
	"strings"
	"time"
)

// PID identifies a simulated process. Generated as "P<n>", never reused
// until Reset.
type PID string

// CID identifies a channel. Generated as "C<n>".
type CID string

// ProcessState is the simulated scheduling state of a process.
type ProcessState string

const (
	StateReady      ProcessState = "ready"
	StateRunning    ProcessState = "running"
	StateBlocked    ProcessState = "blocked"
	StateTerminated ProcessState = "terminated"
)

// ChannelType selects how a channel carries data.
type ChannelType string

const (
	ChannelPipe   ChannelType = "pipe"
	ChannelMQ     ChannelType = "mq"
	ChannelShared ChannelType = "shared"
)

// Valid reports whether t is a known channel type.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelPipe, ChannelMQ, ChannelShared:
		return true
	}
	return false
}

// buffered reports whether step() drains this channel type.
func (t ChannelType) buffered() bool {
	return t == ChannelPipe || t == ChannelMQ
}

// DefaultBufferSize is the capacity used when a caller does not pick one.
const DefaultBufferSize = 5

// LockID names a lock by its channel and lock name.
type LockID struct {
	Channel CID
	Name    string
}

// String renders the "<cid>:<name>" form used in heldLocks and release requests.
func (l LockID) String() string {
	return string(l.Channel) + ":" + l.Name
}

// ParseLockID splits "<cid>:<name>" at the first colon.
func ParseLockID(full string) (LockID, bool) {
	cid, name, ok := strings.Cut(full, ":")
	if !ok || cid == "" {
		return LockID{}, false
	}
	return LockID{Channel: CID(cid), Name: name}, true
}

// Wait describes what a blocked process is waiting for. It is either a
// LockWait or a ChannelWait.
type Wait interface {
	Channel() CID
	isWait()
}

// LockWait means the process is queued on a lock.
type LockWait struct {
	ChannelID CID
	LockName  string
}

// ChannelWait means the process tried to send into a full channel.
type ChannelWait struct {
	ChannelID CID
}

func (w LockWait) Channel() CID    { return w.ChannelID }
func (w ChannelWait) Channel() CID { return w.ChannelID }
func (LockWait) isWait()           {}
func (ChannelWait) isWait()        {}

// Lock returns the lock the process is queued on.
func (w LockWait) Lock() LockID {
	return LockID{Channel: w.ChannelID, Name: w.LockName}
}

// MarshalJSON renders {"type":"lock","channelId":...,"lockName":...}.
func (w LockWait) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		ChannelID CID    `json:"channelId"`
		LockName  string `json:"lockName"`
	}{"lock", w.ChannelID, w.LockName})
}

// MarshalJSON renders {"type":"channel","channelId":...}.
func (w ChannelWait) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		ChannelID CID    `json:"channelId"`
	}{"channel", w.ChannelID})
}

// Message is an entry in a channel buffer. From and To may refer to
// processes that have since been killed.
type Message struct {
	ID        string    `json:"id"`
	From      PID       `json:"from"`
	To        PID       `json:"to"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// MemoryCell is one key of a shared channel's memory.
type MemoryCell struct {
	Value     any       `json:"value"`
	By        PID       `json:"by"`
	Timestamp time.Time `json:"timestamp"`
}

// SharedWrite is the payload form for sends on shared channels. A
// map[string]any with a string "key" entry is accepted as well.
type SharedWrite struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type process struct {
	pid        PID
	name       string
	priority   int
	state      ProcessState
	heldLocks  []LockID
	waitingFor Wait
}

func (p *process) holds(id LockID) bool {
	for _, h := range p.heldLocks {
		if h == id {
			return true
		}
	}
	return false
}

func (p *process) addHeld(id LockID) {
	if !p.holds(id) {
		p.heldLocks = append(p.heldLocks, id)
	}
}

func (p *process) dropHeld(id LockID) {
	for i, h := range p.heldLocks {
		if h == id {
			p.heldLocks = append(p.heldLocks[:i], p.heldLocks[i+1:]...)
			return
		}
	}
}

type lock struct {
	owner   PID
	waiters []PID
}

func (l *lock) removeWaiter(pid PID) {
	kept := l.waiters[:0]
	for _, w := range l.waiters {
		if w != pid {
			kept = append(kept, w)
		}
	}
	l.waiters = kept
}

func (l *lock) hasWaiter(pid PID) bool {
	for _, w := range l.waiters {
		if w == pid {
			return true
		}
	}
	return false
}

type channel struct {
	cid        CID
	typ        ChannelType
	name       string
	bufferSize int
	buffer     []Message
	locks      map[string]*lock
	memory     map[string]MemoryCell
}

// lock returns the named lock, creating it on first reference.
func (c *channel) lock(name string) *lock {
	l, ok := c.locks[name]
	if !ok {
		l = &lock{}
		c.locks[name] = l
	}
	return l
}
