package session

import (
	"fmt"
	"time"

	"stashcraft.gg/internal/protocol"
	"stashcraft.gg/internal/stash"
)

// RequestLock asks the server for exclusive access to containerID. At most
// one request may be pending; asking for a different container while holding
// a lock releases the held one first.
func (s *Session) RequestLock(containerID string, pos [3]int, cfg ContainerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == lockPending {
		return fmt.Errorf("%w (for %q)", ErrLockPending, s.containerID)
	}
	if s.state == lockHeld || s.state == lockConfirming {
		if s.containerID == containerID {
			return nil
		}
		s.releaseLocked()
	}

	s.state = lockPending
	s.containerID = containerID
	s.cfg = cfg
	s.send(protocol.LockMsg{
		Type:            protocol.TypeLock,
		ProtocolVersion: s.tun.ProtocolVersion,
		ContainerID:     containerID,
		Pos:             pos,
	})
	return nil
}

// Release flushes any pending save and gives the lock back. The flush is
// ordered strictly before the unlock message so final state is never lost.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != lockHeld && s.state != lockConfirming {
		return
	}
	s.releaseLocked()
}

func (s *Session) releaseLocked() {
	s.flushSaveLocked()
	s.send(protocol.UnlockMsg{
		Type:            protocol.TypeUnlock,
		ProtocolVersion: s.tun.ProtocolVersion,
		ContainerID:     s.containerID,
	})
	s.log.Printf("released lock on %s", s.containerID)
	s.teardownLocked()
}

func (s *Session) handleLockResponse(m protocol.LockResponseMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != lockPending || m.ContainerID != s.containerID {
		s.log.Printf("stale lock response for %s in state %s", m.ContainerID, s.state)
		return
	}
	if !m.Success {
		id := s.containerID
		s.teardownLocked()
		s.log.Printf("lock denied on %s: %s %s", id, m.Code, m.Reason)
		if s.hooks.DragAborted != nil {
			s.hooks.DragAborted(id)
		}
		if s.hooks.Denied != nil {
			s.hooks.Denied(id, m.Reason)
		}
		return
	}

	cols, rows := m.Cols, m.Rows
	if cols <= 0 || rows <= 0 {
		cols, rows = s.cfg.Cols, s.cfg.Rows
	}
	c := &stash.Container{
		ID:            m.ContainerID,
		StructureType: s.cfg.StructureType,
		Cols:          cols,
		Rows:          rows,
		Accept:        s.cfg.Accept,
		Cooker:        s.cfg.Cooker,
		Hostile:       s.cfg.Hostile,
		MaxStock:      s.cfg.MaxStock,
	}
	c.AdoptWire(m.Contents)
	s.container = c
	s.loaded = true
	s.state = lockHeld
	s.tick = maxTick(s.tick, m.Tick)
	s.journalEntry(JournalEntry{Kind: "lock_grant", ContainerID: c.ID, Items: len(c.Items)})

	// Account for everything that happened while nobody was watching.
	res := stash.ReacquireSweep(c, s.tick, s.decayParams())
	s.emitCompletionsLocked(res)
	if res.NeedSave() || len(res.DepletedFuel) > 0 {
		s.markDirtyLocked()
	}

	if s.cache != nil {
		s.cache.RecordState(c.ID, s.tick, c.WireContents())
	}
	s.armHeartbeatLocked()
	if s.hooks.Opened != nil {
		s.hooks.Opened(c)
	}
}

func (s *Session) armHeartbeatLocked() {
	if s.heartbeat != nil {
		s.heartbeat.Cancel()
	}
	s.heartbeat = s.clock.Schedule(time.Duration(s.tun.HeartbeatMs)*time.Millisecond, s.onHeartbeat)
}

func (s *Session) onHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != lockHeld {
		return
	}
	s.state = lockConfirming
	s.send(protocol.LockConfirmMsg{
		Type:            protocol.TypeLockConfirm,
		ProtocolVersion: s.tun.ProtocolVersion,
		ContainerID:     s.containerID,
	})
	// No new heartbeat until this one resolves; a silent server counts as a
	// lost lock after one more interval.
	s.heartbeat = s.clock.Schedule(time.Duration(s.tun.HeartbeatMs)*time.Millisecond, s.onConfirmTimeout)
}

func (s *Session) onConfirmTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != lockConfirming {
		return
	}
	s.lockLostLocked("confirm timeout")
}

func (s *Session) handleConfirmResponse(m protocol.LockConfirmResponseMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != lockConfirming || m.ContainerID != s.containerID {
		s.log.Printf("stale confirm response for %s in state %s", m.ContainerID, s.state)
		return
	}
	if !m.Confirmed {
		s.lockLostLocked(m.Reason)
		return
	}
	s.state = lockHeld
	s.armHeartbeatLocked()
}

// lockLostLocked handles an involuntary loss: no flush (the lock is already
// gone server-side, a save now would be rejected or worse), cached contents
// discarded, dependent UI force-closed.
func (s *Session) lockLostLocked(reason string) {
	id := s.containerID
	s.journalEntry(JournalEntry{Kind: "lock_lost", ContainerID: id, Reason: reason})
	s.log.Printf("lock lost on %s: %s", id, reason)
	s.teardownLocked()
	if s.hooks.DragAborted != nil {
		s.hooks.DragAborted(id)
	}
	if s.hooks.Closed != nil {
		s.hooks.Closed(id, reason)
	}
}

func (s *Session) teardownLocked() {
	if s.heartbeat != nil {
		s.heartbeat.Cancel()
		s.heartbeat = nil
	}
	if s.saveTimer != nil {
		s.saveTimer.Cancel()
		s.saveTimer = nil
	}
	if s.pushTimer != nil {
		s.pushTimer.Cancel()
		s.pushTimer = nil
	}
	s.deferredPush = nil
	for id, t := range s.txns {
		t.deadline.Cancel()
		delete(s.txns, id)
	}
	s.container = nil
	s.loaded = false
	s.dirty = false
	s.containerID = ""
	s.cfg = ContainerConfig{}
	s.state = lockIdle
}

func (s *Session) markDirtyLocked() {
	s.dirty = true
	if s.saveTimer != nil {
		s.saveTimer.Cancel()
	}
	s.saveTimer = s.clock.Schedule(time.Duration(s.tun.SaveDebounceMs)*time.Millisecond, s.onSaveTimer)
}

func (s *Session) onSaveTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushSaveLocked()
}

// flushSaveLocked sends the container's full contents, but only while the
// lock is held and the contents were actually loaded from the server. A save
// synthesized from never-loaded state would erase real data on a slow
// connection, so that case is logged and suppressed.
func (s *Session) flushSaveLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Cancel()
		s.saveTimer = nil
	}
	if !s.dirty {
		return
	}
	if s.state != lockHeld && s.state != lockConfirming {
		s.log.Printf("save suppressed for %s: lock state %s", s.containerID, s.state)
		return
	}
	if !s.loaded || s.container == nil {
		s.log.Printf("save suppressed for %s: contents never loaded", s.containerID)
		return
	}
	contents := s.container.WireContents()
	s.send(protocol.SaveMsg{
		Type:            protocol.TypeSave,
		ProtocolVersion: s.tun.ProtocolVersion,
		ContainerID:     s.containerID,
		Contents:        contents,
	})
	s.dirty = false
	s.journalEntry(JournalEntry{Kind: "save_flush", ContainerID: s.containerID, Items: len(contents)})
}

func (s *Session) emitCompletionsLocked(res stash.SweepResult) {
	c := s.container
	if c == nil {
		return
	}
	msgType := protocol.TypeProcessingComplete
	if c.Cooker {
		msgType = protocol.TypeCookingComplete
	}
	for _, itemID := range res.Completed {
		s.send(protocol.CompleteMsg{
			Type:            msgType,
			ProtocolVersion: s.tun.ProtocolVersion,
			ContainerID:     c.ID,
			ItemID:          itemID,
		})
		if s.hooks.Completion != nil {
			s.hooks.Completion(c.ID, itemID, c.Cooker)
		}
	}
}

// AdvanceTick feeds the externally-owned server tick into the session and
// runs a decay sweep over the open container.
func (s *Session) AdvanceTick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = maxTick(s.tick, tick)
	if s.container == nil || !s.loaded {
		return
	}
	res := stash.Sweep(s.container, s.tick, s.decayParams())
	s.emitCompletionsLocked(res)
	if res.NeedSave() {
		s.markDirtyLocked()
	}
	if res.TimersCancelled && s.hooks.Refresh != nil {
		s.hooks.Refresh(s.container)
	}
}
