// Package sched is a small delayed-task scheduler. The session layer never
// touches time.AfterFunc directly; it takes a Scheduler so tests can drive a
// manual clock instead of sleeping.
package sched

import (
	"sort"
	"sync"
	"time"
)

// Handle is a cancellable pending task.
type Handle interface {
	// Cancel stops the task if it has not fired yet. Safe to call twice.
	Cancel()
}

type Scheduler interface {
	// Schedule runs fn once after d. The returned handle cancels it.
	Schedule(d time.Duration, fn func()) Handle
}

// Wall schedules on the real clock.
type Wall struct{}

type wallHandle struct{ t *time.Timer }

func (h wallHandle) Cancel() { h.t.Stop() }

func (Wall) Schedule(d time.Duration, fn func()) Handle {
	return wallHandle{t: time.AfterFunc(d, fn)}
}

// Manual is a virtual clock for tests. Tasks fire only when Advance moves the
// clock past their due time, in due order, on the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	next  int
	tasks []*manualTask
}

type manualTask struct {
	m        *Manual
	seq      int
	due      time.Duration
	fn       func()
	canceled bool
}

func (t *manualTask) Cancel() {
	t.m.mu.Lock()
	t.canceled = true
	t.m.mu.Unlock()
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) Schedule(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{m: m, seq: m.next, due: m.now + d, fn: fn}
	m.next++
	m.tasks = append(m.tasks, t)
	return t
}

// Now reports the virtual clock reading.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d, firing due tasks in order. A task
// scheduled by another task's callback fires in the same Advance call if it
// comes due within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	for {
		t := m.popDueLocked(target)
		if t == nil {
			break
		}
		m.now = t.due
		m.mu.Unlock()
		t.fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

func (m *Manual) popDueLocked(target time.Duration) *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.canceled {
			live = append(live, t)
		}
	}
	m.tasks = live
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	if len(m.tasks) == 0 || m.tasks[0].due > target {
		return nil
	}
	t := m.tasks[0]
	m.tasks = m.tasks[1:]
	return t
}
