package sim

// ProcessView is the externally visible copy of a process. HeldLocks is
// rendered as "<cid>:<lockName>" strings in acquisition order.
type ProcessView struct {
	PID        PID          `json:"pid"`
	Name       string       `json:"name"`
	Priority   int          `json:"priority"`
	State      ProcessState `json:"state"`
	HeldLocks  []string     `json:"heldLocks"`
	WaitingFor Wait         `json:"waitingFor"`
}

// LockView is the externally visible copy of a lock.
type LockView struct {
	Owner   PID   `json:"owner,omitempty"`
	Waiters []PID `json:"waiters"`
}

// ChannelView is the externally visible copy of a channel. Memory is only
// present on shared channels.
type ChannelView struct {
	CID        CID                   `json:"cid"`
	Type       ChannelType           `json:"type"`
	Name       string                `json:"name"`
	BufferSize int                   `json:"bufferSize"`
	Buffer     []Message             `json:"buffer"`
	Locks      map[string]LockView   `json:"locks"`
	Memory     map[string]MemoryCell `json:"memory,omitempty"`
}

// State is a full snapshot of the simulation.
type State struct {
	Processes map[PID]ProcessView `json:"processes"`
	Channels  map[CID]ChannelView `json:"channels"`
	Paused    bool                `json:"paused"`
}

func (p *process) view() ProcessView {
	held := make([]string, len(p.heldLocks))
	for i, id := range p.heldLocks {
		held[i] = id.String()
	}
	return ProcessView{
		PID:        p.pid,
		Name:       p.name,
		Priority:   p.priority,
		State:      p.state,
		HeldLocks:  held,
		WaitingFor: p.waitingFor,
	}
}

func (l *lock) view() LockView {
	return LockView{
		Owner:   l.owner,
		Waiters: append([]PID{}, l.waiters...),
	}
}

func (c *channel) view() ChannelView {
	locks := make(map[string]LockView, len(c.locks))
	for name, l := range c.locks {
		locks[name] = l.view()
	}
	buffer := make([]Message, len(c.buffer))
	for i, m := range c.buffer {
		m.Payload = cloneValue(m.Payload)
		buffer[i] = m
	}
	v := ChannelView{
		CID:        c.cid,
		Type:       c.typ,
		Name:       c.name,
		BufferSize: c.bufferSize,
		Buffer:     buffer,
		Locks:      locks,
	}
	if c.memory != nil {
		v.Memory = make(map[string]MemoryCell, len(c.memory))
		for k, cell := range c.memory {
			cell.Value = cloneValue(cell.Value)
			v.Memory[k] = cell
		}
	}
	return v
}
