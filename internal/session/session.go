// Package session owns one client's view of shared storage: the container
// lock state machine, optimistic transactions and their reconciliation, and
// the debounced save pipeline. All state lives on the Session object; there
// are no package-level globals, so the machine is testable without a UI tree.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stashcraft.gg/internal/protocol"
	"stashcraft.gg/internal/sched"
	"stashcraft.gg/internal/stash"
	"stashcraft.gg/internal/tuning"
)

// Transport sends one message to the authoritative server.
type Transport interface {
	Send(v any) error
}

// Journal receives an audit record per committed/resolved transaction and
// flushed save. Satisfied by persistence/journal.Writer.
type Journal interface {
	Write(v any) error
}

// Cache remembers the last confirmed contents per container. Satisfied by
// persistence/cachedb.Cache.
type Cache interface {
	RecordState(containerID string, tick uint64, contents []protocol.WireItem)
	RecordTxn(txnID, containerID, kind, itemType string, price int, status string)
}

// Hooks are UI-facing signals. All fields are optional. Hooks run with the
// session lock held and must not call back into the session.
type Hooks struct {
	// Opened fires when a lock grant adopted the container's contents.
	Opened func(c *stash.Container)
	// Closed fires when a held lock is lost and the container UI must close.
	Closed func(containerID, reason string)
	// Denied fires when a lock request is refused.
	Denied func(containerID, reason string)
	// DragAborted fires whenever an in-flight drag targeting the container
	// must be cancelled (denial or lock loss).
	DragAborted func(containerID string)
	// Refresh fires when an authoritative push changed visible state.
	Refresh func(c *stash.Container)
	// Completion fires once per finished cook/process cycle.
	Completion func(containerID, itemID string, cooking bool)
}

// ContainerConfig is catalog data about the structure being opened. It comes
// from the caller because the structure catalog is not this package's concern.
type ContainerConfig struct {
	StructureType string
	Cols, Rows    int
	Accept        stash.AcceptPolicy
	Cooker        bool
	Hostile       bool
	MaxStock      int
}

var (
	ErrLockPending  = errors.New("a lock request is already pending")
	ErrNotHeld      = errors.New("lock not held for this container")
	ErrNotLoaded    = errors.New("container contents never loaded from server")
	ErrRefused      = errors.New("container refuses this item type")
	ErrPlacement    = errors.New("placement rejected")
	ErrInsufficient = errors.New("insufficient coins")
)

type lockState int

const (
	lockIdle lockState = iota
	lockPending
	lockHeld
	lockConfirming
)

func (s lockState) String() string {
	switch s {
	case lockIdle:
		return "idle"
	case lockPending:
		return "pending"
	case lockHeld:
		return "held"
	case lockConfirming:
		return "confirming"
	default:
		return fmt.Sprintf("lockState(%d)", int(s))
	}
}

// JournalEntry is the audit record appended for every session event worth
// keeping: transaction lifecycle, flushed saves, lock grants and losses.
type JournalEntry struct {
	Kind        string    `json:"kind"`
	ContainerID string    `json:"container_id"`
	TxnID       string    `json:"txn_id,omitempty"`
	ItemType    string    `json:"item_type,omitempty"`
	Price       int       `json:"price,omitempty"`
	Items       int       `json:"items,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	At          time.Time `json:"at"`
}

type Session struct {
	mu sync.Mutex

	log       *log.Logger
	tun       tuning.Tuning
	clock     sched.Scheduler
	transport Transport
	hooks     Hooks
	journal   Journal
	cache     Cache

	state       lockState
	containerID string
	cfg         ContainerConfig
	container   *stash.Container
	loaded      bool

	heartbeat sched.Handle
	saveTimer sched.Handle
	dirty     bool

	txns   map[string]*txn
	txnSeq uint64

	pushTimer    sched.Handle
	deferredPush *protocol.StateMsg

	tick  uint64
	coins int64
}

func New(logger *log.Logger, tun tuning.Tuning, clock sched.Scheduler, transport Transport, hooks Hooks) *Session {
	return &Session{
		log:       logger,
		tun:       tun,
		clock:     clock,
		transport: transport,
		hooks:     hooks,
		txns:      map[string]*txn{},
	}
}

// WithJournal attaches the transaction journal sink.
func (s *Session) WithJournal(j Journal) *Session {
	s.journal = j
	return s
}

// WithCache attaches the last-known-contents cache.
func (s *Session) WithCache(c Cache) *Session {
	s.cache = c
	return s
}

// SetCoins seeds the player's coin balance (from the join handshake).
func (s *Session) SetCoins(v int64) {
	s.mu.Lock()
	s.coins = v
	s.mu.Unlock()
}

func (s *Session) Coins() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coins
}

// State reports the lock state name and the container it applies to.
func (s *Session) State() (state, containerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String(), s.containerID
}

// Tick reports the highest server tick seen so far.
func (s *Session) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// HandleMessage routes one raw server message. Unknown types are ignored so
// protocol additions stay backward compatible.
func (s *Session) HandleMessage(raw []byte) error {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	switch base.Type {
	case protocol.TypeLockResponse:
		var m protocol.LockResponseMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode %s: %w", base.Type, err)
		}
		s.handleLockResponse(m)
	case protocol.TypeLockConfirmResponse:
		var m protocol.LockConfirmResponseMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode %s: %w", base.Type, err)
		}
		s.handleConfirmResponse(m)
	case protocol.TypeState:
		var m protocol.StateMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode %s: %w", base.Type, err)
		}
		s.handleState(m)
	default:
		s.log.Printf("ignoring message type %q", base.Type)
	}
	return nil
}

func (s *Session) send(v any) {
	if err := s.transport.Send(v); err != nil {
		s.log.Printf("send failed: %v", err)
	}
}

func (s *Session) journalEntry(e JournalEntry) {
	if s.journal == nil {
		return
	}
	e.At = time.Now().UTC()
	if err := s.journal.Write(e); err != nil {
		s.log.Printf("journal write failed: %v", err)
	}
}

func (s *Session) decayParams() stash.DecayParams {
	return stash.DecayParams{
		TicksPerMinute:         s.tun.TicksPerMinute,
		FuelDepletionPerMinute: s.tun.FuelDepletionPerMinute,
	}
}

func maxTick(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
