package session

import (
	"fmt"
	"time"

	"stashcraft.gg/internal/economy"
	"stashcraft.gg/internal/protocol"
	"stashcraft.gg/internal/sched"
	"stashcraft.gg/internal/stash"
)

// txn is one in-flight optimistic mutation: pending until the server acks it
// by ID or the deadline expires. There is no retry; on expiry the next
// authoritative push wins unconditionally.
type txn struct {
	id       string
	kind     string
	itemType string
	price    int
	deadline sched.Handle
}

func (s *Session) requireOpenLocked() error {
	if s.state != lockHeld && s.state != lockConfirming {
		return ErrNotHeld
	}
	if !s.loaded || s.container == nil {
		return ErrNotLoaded
	}
	return nil
}

// Deposit places a new item into the open container at (x, y, rotation).
// Placement legality is decided locally and never crosses the network; the
// debounced save carries the result.
func (s *Session) Deposit(it *stash.Item, x, y, rotation int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	c := s.container
	if !c.Accept.Accepts(it.Type) {
		return fmt.Errorf("%w: %s", ErrRefused, it.Type)
	}
	// Stackables merge into an existing stack of the same type and quality
	// before any placement search.
	if it.Quantity != nil {
		for _, have := range c.Items {
			if have.ID != it.ID && have.Type == it.Type && have.Quality == it.Quality && have.Quantity != nil {
				*have.Quantity += *it.Quantity
				s.markDirtyLocked()
				return nil
			}
		}
	}
	if !stash.ValidPlacement(it, x, y, rotation, c.Items, c.Cols, c.Rows) {
		return fmt.Errorf("%w: %s at (%d,%d) rot=%d", ErrPlacement, it.ID, x, y, rotation)
	}
	it.X, it.Y, it.Rotation = x, y, rotation
	c.Items = append(c.Items, it)
	s.markDirtyLocked()
	return nil
}

// MoveItem repositions an item already in the container.
func (s *Session) MoveItem(itemID string, x, y, rotation int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	c := s.container
	it := c.ItemByID(itemID)
	if it == nil {
		return fmt.Errorf("%w: no item %s", ErrPlacement, itemID)
	}
	if !stash.ValidPlacement(it, x, y, rotation, c.Items, c.Cols, c.Rows) {
		return fmt.Errorf("%w: %s at (%d,%d) rot=%d", ErrPlacement, itemID, x, y, rotation)
	}
	it.X, it.Y, it.Rotation = x, y, rotation
	s.markDirtyLocked()
	return nil
}

// Withdraw removes an item from the container and hands it to the caller.
func (s *Session) Withdraw(itemID string) (*stash.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return nil, err
	}
	it := s.container.RemoveItem(itemID)
	if it == nil {
		return nil, fmt.Errorf("%w: no item %s", ErrPlacement, itemID)
	}
	s.markDirtyLocked()
	return it, nil
}

// BulkDeposit moves every eligible item of itemType from src (an unlocked
// local container, typically the player inventory) into the open container.
func (s *Session) BulkDeposit(src *stash.Container, itemType string) (stash.TransferReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return stash.TransferReport{}, err
	}
	rep := stash.TransferAll(src, s.container, itemType)
	if rep.Moved > 0 {
		s.markDirtyLocked()
	}
	return rep, nil
}

// BulkWithdraw moves every eligible item of itemType from the open container
// into dst.
func (s *Session) BulkWithdraw(dst *stash.Container, itemType string) (stash.TransferReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return stash.TransferReport{}, err
	}
	rep := stash.TransferAll(s.container, dst, itemType)
	if rep.Moved > 0 {
		s.markDirtyLocked()
	}
	return rep, nil
}

// Buy commits an optimistic purchase: coins debited and stock decremented
// immediately, the tagged mutation emitted, reconciliation deferred to the
// server's push or the deadline. The returned price is advisory only.
func (s *Session) Buy(itemType string, basePrice, quality int, durability *int) (txnID string, price int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return "", 0, err
	}
	c := s.container
	price = economy.Quote(basePrice, c.MaxStock, c.Stock, quality, durability, c.Hostile)
	if s.coins < int64(price) {
		return "", 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficient, price, s.coins)
	}
	s.coins -= int64(price)
	if c.Stock > 0 {
		c.Stock--
	}
	txnID = s.commitTxnLocked("buy", itemType, price)
	s.send(protocol.TradeMsg{
		Type:            protocol.TypeBuy,
		ProtocolVersion: s.tun.ProtocolVersion,
		ContainerID:     c.ID,
		ItemType:        itemType,
		Quality:         quality,
		Durability:      durability,
		Price:           price,
		TxnID:           txnID,
	})
	return txnID, price, nil
}

// Sell commits an optimistic sale. Selling into a hostile container is
// permitted but worthless (price 0), which kills the loot-and-resell loop.
func (s *Session) Sell(itemType string, basePrice, quality int, durability *int) (txnID string, price int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return "", 0, err
	}
	c := s.container
	price = economy.Quote(basePrice, c.MaxStock, c.Stock, quality, durability, c.Hostile)
	s.coins += int64(price)
	c.Stock++
	txnID = s.commitTxnLocked("sell", itemType, price)
	s.send(protocol.TradeMsg{
		Type:            protocol.TypeSell,
		ProtocolVersion: s.tun.ProtocolVersion,
		ContainerID:     c.ID,
		ItemType:        itemType,
		Quality:         quality,
		Durability:      durability,
		Price:           price,
		TxnID:           txnID,
	})
	return txnID, price, nil
}

func (s *Session) commitTxnLocked(kind, itemType string, price int) string {
	s.txnSeq++
	id := fmt.Sprintf("T_%d", s.txnSeq)
	t := &txn{id: id, kind: kind, itemType: itemType, price: price}
	t.deadline = s.clock.Schedule(time.Duration(s.tun.TxnDeadlineMs)*time.Millisecond, func() {
		s.onTxnDeadline(id)
	})
	s.txns[id] = t
	s.journalEntry(JournalEntry{Kind: "txn_commit", ContainerID: s.containerID, TxnID: id, ItemType: itemType, Price: price})
	if s.cache != nil {
		s.cache.RecordTxn(id, s.containerID, kind, itemType, price, "pending")
	}
	return id
}

func (s *Session) onTxnDeadline(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return
	}
	delete(s.txns, id)
	s.log.Printf("txn %s (%s) expired unconfirmed; trusting next push", id, t.kind)
	s.journalEntry(JournalEntry{Kind: "txn_expire", ContainerID: s.containerID, TxnID: id, ItemType: t.itemType, Price: t.price})
	if s.cache != nil {
		s.cache.RecordTxn(id, s.containerID, t.kind, t.itemType, t.price, "expired")
	}
}

func (s *Session) handleState(m protocol.StateMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = maxTick(s.tick, m.Tick)

	if t, ok := s.txns[m.TxnID]; ok && m.TxnID != "" {
		// Our own mutation confirmed: the optimistic state is already what
		// the server now holds, so adopt silently to avoid re-render flicker.
		t.deadline.Cancel()
		delete(s.txns, m.TxnID)
		s.journalEntry(JournalEntry{Kind: "txn_confirm", ContainerID: m.ContainerID, TxnID: m.TxnID, ItemType: t.itemType, Price: t.price})
		if s.cache != nil {
			s.cache.RecordTxn(m.TxnID, m.ContainerID, t.kind, t.itemType, t.price, "confirmed")
		}
		s.applyStateLocked(&m, false)
		return
	}

	if len(s.txns) > 0 {
		// External update racing our pending transaction: debounce instead
		// of clobbering the user's in-flight action. Pending transactions
		// are younger than the deadline, which bounds the grace window.
		// Later pushes within the window re-arm with the newest payload.
		s.deferredPush = &m
		if s.pushTimer != nil {
			s.pushTimer.Cancel()
		}
		s.pushTimer = s.clock.Schedule(time.Duration(s.tun.GraceWindowMs)*time.Millisecond, s.onDeferredPush)
		return
	}

	s.applyStateLocked(&m, true)
}

func (s *Session) onDeferredPush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.deferredPush
	s.deferredPush = nil
	s.pushTimer = nil
	if m != nil {
		s.applyStateLocked(m, true)
	}
}

// applyStateLocked adopts an authoritative push. The server's view always
// wins; any optimistic leftovers are overwritten here.
func (s *Session) applyStateLocked(m *protocol.StateMsg, notify bool) {
	if s.cache != nil {
		s.cache.RecordState(m.ContainerID, m.Tick, m.Contents)
	}
	if s.container == nil || m.ContainerID != s.containerID {
		return
	}
	s.container.AdoptWire(m.Contents)
	if m.Stock != nil {
		s.container.Stock = *m.Stock
	}
	if m.Coins != nil {
		s.coins = *m.Coins
	}
	if notify && s.hooks.Refresh != nil {
		s.hooks.Refresh(s.container)
	}
}
