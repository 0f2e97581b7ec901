package sim

import (
	"fmt"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
)

// SendMessage puts a message on a channel.
//
// Pipes and message queues append to the buffer. When the buffer is full
// the message is dropped, the sender (if it still exists) becomes blocked on
// the channel, and channel.full is emitted; that is backpressure, not an
// error. Shared channels write payload.key straight into channel memory with
// no lock enforcement.
//
// The only errors are an unknown channel (ErrChannelNotFound) and a shared
// write without a key (ErrInvalidPayload).
func (s *Simulator) SendMessage(from, to PID, cid CID, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.channels[cid]
	if !ok {
		return fmt.Errorf("send to %s: %w", cid, ErrChannelNotFound)
	}

	if c.typ == ChannelShared {
		w, ok := sharedWriteOf(payload)
		if !ok {
			return fmt.Errorf("send to %s: %w: shared write needs a string key", cid, ErrInvalidPayload)
		}
		c.memory[w.Key] = MemoryCell{Value: cloneValue(w.Value), By: from, Timestamp: s.now()}
		s.emit(events.SharedMemoryWrite, events.SharedWritePayload{
			ChannelID: string(cid),
			Key:       w.Key,
			Value:     w.Value,
			By:        string(from),
		})
		return nil
	}

	if len(c.buffer) >= c.bufferSize {
		if p, ok := s.processes[from]; ok {
			p.state = StateBlocked
			p.waitingFor = ChannelWait{ChannelID: cid}
		}
		s.emit(events.ChannelFull, events.ChannelFullPayload{
			ChannelID: string(cid),
			From:      string(from),
		})
		return nil
	}

	msg := Message{
		ID:        s.messageID(),
		From:      from,
		To:        to,
		Payload:   cloneValue(payload),
		Timestamp: s.now(),
	}
	c.buffer = append(c.buffer, msg)
	s.emit(events.MessageEnqueued, events.MessagePayload{
		ChannelID: string(cid),
		Message:   messageInfo(msg),
	})
	return nil
}

// Step runs one tick. Every pipe or message queue with buffered messages
// delivers its oldest message, marks the recipient running if it still
// exists, and unblocks at most one sender waiting on that channel. Deadlock
// detection runs once all channels are processed.
func (s *Simulator) Step() [][]PID {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cid := range s.chanOrder {
		c := s.channels[cid]
		if !c.typ.buffered() || len(c.buffer) == 0 {
			continue
		}

		msg := c.buffer[0]
		c.buffer[0] = Message{}
		c.buffer = c.buffer[1:]
		s.emit(events.MessageDelivered, events.MessagePayload{
			ChannelID: string(cid),
			Message:   messageInfo(msg),
		})

		if dest, ok := s.processes[msg.To]; ok {
			dest.state = StateRunning
		}

		s.unblockOneSender(cid)
	}

	return s.detectLocked()
}

// unblockOneSender readies the first process (in creation order) waiting on
// a full cid. The wait, not the state, selects it: a blocked sender that
// received a message elsewhere is running but still waiting. Must be called
// with mu held.
func (s *Simulator) unblockOneSender(cid CID) {
	for _, pid := range s.procOrder {
		p := s.processes[pid]
		w, ok := p.waitingFor.(ChannelWait)
		if !ok || w.ChannelID != cid {
			continue
		}
		p.state = StateReady
		p.waitingFor = nil
		s.emit(events.ProcessUnblocked, events.ProcessUnblockedPayload{
			PID:       string(pid),
			ChannelID: string(cid),
		})
		return
	}
}

func sharedWriteOf(payload any) (SharedWrite, bool) {
	switch v := payload.(type) {
	case SharedWrite:
		return v, true
	case *SharedWrite:
		if v == nil {
			return SharedWrite{}, false
		}
		return *v, true
	case map[string]any:
		key, ok := v["key"].(string)
		if !ok {
			return SharedWrite{}, false
		}
		return SharedWrite{Key: key, Value: v["value"]}, true
	}
	return SharedWrite{}, false
}

func messageInfo(m Message) events.MessageInfo {
	return events.MessageInfo{
		ID:        m.ID,
		From:      string(m.From),
		To:        string(m.To),
		Payload:   m.Payload,
		Timestamp: m.Timestamp,
	}
}
