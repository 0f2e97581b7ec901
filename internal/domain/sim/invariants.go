package sim

import (
	"fmt"

	"go.uber.org/multierr"
)

// Verify checks the global invariants and returns every violation found:
//   - a lock id is in a process's held set iff that process owns the lock
//   - waiter queues hold neither their owner nor duplicates
//   - no buffer exceeds its capacity
func (s *Simulator) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var err error
	for _, pid := range s.procOrder {
		p := s.processes[pid]
		for _, lid := range p.heldLocks {
			c, ok := s.channels[lid.Channel]
			if !ok {
				err = multierr.Append(err, fmt.Errorf("%s holds %s on a missing channel", pid, lid))
				continue
			}
			l, ok := c.locks[lid.Name]
			if !ok || l.owner != pid {
				err = multierr.Append(err, fmt.Errorf("%s holds %s but is not its owner", pid, lid))
			}
		}
	}

	for _, cid := range s.chanOrder {
		c := s.channels[cid]
		if len(c.buffer) > c.bufferSize {
			err = multierr.Append(err, fmt.Errorf("%s buffer has %d messages, capacity %d", cid, len(c.buffer), c.bufferSize))
		}
		for name, l := range c.locks {
			lid := LockID{Channel: cid, Name: name}
			if l.owner != "" {
				owner, ok := s.processes[l.owner]
				if !ok || !owner.holds(lid) {
					err = multierr.Append(err, fmt.Errorf("%s owned by %s which does not hold it", lid, l.owner))
				}
			}
			seen := make(map[PID]bool, len(l.waiters))
			for _, w := range l.waiters {
				if w == l.owner {
					err = multierr.Append(err, fmt.Errorf("%s lists its owner %s as a waiter", lid, w))
				}
				if seen[w] {
					err = multierr.Append(err, fmt.Errorf("%s lists waiter %s twice", lid, w))
				}
				seen[w] = true
			}
		}
	}
	return err
}
