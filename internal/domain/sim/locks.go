package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
)

// AcquireLock requests the named lock on a channel for pid.
//
// An unowned lock is granted at once and AcquireLock returns true. A lock
// owned by another process queues pid (at most once) as a FIFO waiter, marks
// it blocked on the lock, and returns false; that is a normal outcome, not a
// failure. Asking again for a lock pid already owns returns true and changes
// nothing. Unknown pids or channels return false without emitting.
func (s *Simulator) AcquireLock(pid PID, cid CID, name string) bool {
	acquired, _ := s.TryAcquireLock(pid, cid, name)
	return acquired
}

// TryAcquireLock is AcquireLock that also says why nothing happened:
// ErrProcessNotFound or ErrChannelNotFound, checked under the same lock as
// the acquisition itself.
func (s *Simulator) TryAcquireLock(pid PID, cid CID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[pid]
	if !ok {
		s.logger.Debug("acquire rejected: unknown process", zap.String("pid", string(pid)))
		return false, fmt.Errorf("acquire %s: %w", pid, ErrProcessNotFound)
	}
	c, ok := s.channels[cid]
	if !ok {
		s.logger.Debug("acquire rejected: unknown channel", zap.String("cid", string(cid)))
		return false, fmt.Errorf("acquire on %s: %w", cid, ErrChannelNotFound)
	}

	l := c.lock(name)
	lid := LockID{Channel: cid, Name: name}

	switch l.owner {
	case "":
		l.owner = pid
		p.addHeld(lid)
		s.emit(events.LockAcquired, events.LockPayload{
			PID:       string(pid),
			ChannelID: string(cid),
			LockName:  name,
		})
		return true, nil
	case pid:
		return true, nil
	}

	if !l.hasWaiter(pid) {
		l.waiters = append(l.waiters, pid)
	}
	p.state = StateBlocked
	p.waitingFor = LockWait{ChannelID: cid, LockName: name}

	s.emit(events.LockWaiting, events.LockWaitingPayload{
		PID:       string(pid),
		ChannelID: string(cid),
		LockName:  name,
		Owner:     string(l.owner),
	})
	return false, nil
}

// ForceReleaseLock releases lockFull ("<cid>:<name>") on behalf of its
// owner. It fails without side effects if the lock does not exist or is not
// owned by ownerPid. On success ownership passes to the longest waiter, if
// any, which becomes ready.
func (s *Simulator) ForceReleaseLock(ownerPid PID, lockFull string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lid, ok := ParseLockID(lockFull)
	if !ok {
		s.logger.Debug("release rejected: malformed lock name", zap.String("lock", lockFull))
		return false
	}
	return s.releaseLocked(ownerPid, lid)
}

// releaseLocked is the single release path, shared by ForceReleaseLock and
// KillProcess. Must be called with mu held.
func (s *Simulator) releaseLocked(ownerPid PID, lid LockID) bool {
	c, ok := s.channels[lid.Channel]
	if !ok {
		return false
	}
	l, ok := c.locks[lid.Name]
	if !ok || l.owner == "" || l.owner != ownerPid {
		s.logger.Debug("release rejected: not the owner",
			zap.String("lock", lid.String()),
			zap.String("pid", string(ownerPid)),
		)
		return false
	}

	l.owner = ""
	if p, ok := s.processes[ownerPid]; ok {
		p.dropHeld(lid)
	}

	for len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]

		pn, ok := s.processes[next]
		if !ok {
			continue
		}
		l.owner = next
		pn.addHeld(lid)
		pn.state = StateReady
		pn.waitingFor = nil

		s.emit(events.LockReleasedAndGranted, events.LockReleasePayload{
			PrevOwner: string(ownerPid),
			NewOwner:  string(next),
			ChannelID: string(lid.Channel),
			LockName:  lid.Name,
		})
		return true
	}

	s.emit(events.LockForceReleased, events.LockReleasePayload{
		PrevOwner: string(ownerPid),
		ChannelID: string(lid.Channel),
		LockName:  lid.Name,
	})
	return true
}
