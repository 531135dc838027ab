// Package cachedb keeps the last confirmed contents of every container the
// client has seen, plus an audit trail of its transactions, in a local
// sqlite file. Writes go through a single writer goroutine; a full queue
// drops the write rather than stalling the session.
package cachedb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"stashcraft.gg/internal/protocol"
)

type Cache struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqState reqKind = iota + 1
	reqTxn
	reqFlush
)

type req struct {
	kind reqKind

	state stateRow
	txn   txnRow
	flush chan struct{}
}

type stateRow struct {
	ContainerID string
	Tick        uint64
	Contents    []protocol.WireItem
}

type txnRow struct {
	TxnID       string
	ContainerID string
	Kind        string
	ItemType    string
	Price       int
	Status      string
	RecordedAt  string
}

func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Cache{
		db: db,
		ch: make(chan req, 4096),
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop()
	}()
	return c, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS containers (
			container_id TEXT PRIMARY KEY,
			tick INTEGER NOT NULL,
			contents_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS txns (
			txn_id TEXT NOT NULL,
			status TEXT NOT NULL,
			container_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			item_type TEXT NOT NULL,
			price INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (txn_id, status)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_txns_container ON txns(container_id, recorded_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.ch)
		c.wg.Wait()
		err = c.db.Close()
	})
	return err
}

// RecordState remembers a container's confirmed contents at tick. Older
// ticks never overwrite newer rows.
func (c *Cache) RecordState(containerID string, tick uint64, contents []protocol.WireItem) {
	if c == nil || c.closed.Load() {
		return
	}
	select {
	case c.ch <- req{kind: reqState, state: stateRow{ContainerID: containerID, Tick: tick, Contents: contents}}:
	default:
		// Drop if the writer falls behind; the server stays authoritative.
	}
}

// RecordTxn appends one transaction lifecycle row (pending/confirmed/expired).
func (c *Cache) RecordTxn(txnID, containerID, kind, itemType string, price int, status string) {
	if c == nil || c.closed.Load() {
		return
	}
	r := txnRow{
		TxnID:       txnID,
		ContainerID: containerID,
		Kind:        kind,
		ItemType:    itemType,
		Price:       price,
		Status:      status,
		RecordedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case c.ch <- req{kind: reqTxn, txn: r}:
	default:
	}
}

// LastKnown returns the cached contents for a container, if any. Reads hit
// the database directly; pair with Flush in tests to avoid racing the writer.
func (c *Cache) LastKnown(containerID string) (contents []protocol.WireItem, tick uint64, ok bool, err error) {
	var raw string
	row := c.db.QueryRow(`SELECT tick, contents_json FROM containers WHERE container_id = ?`, containerID)
	if err := row.Scan(&tick, &raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	if err := json.Unmarshal([]byte(raw), &contents); err != nil {
		return nil, 0, false, fmt.Errorf("cached contents for %s: %w", containerID, err)
	}
	return contents, tick, true, nil
}

// Flush blocks until every write queued before the call has been applied.
func (c *Cache) Flush() {
	if c == nil || c.closed.Load() {
		return
	}
	done := make(chan struct{})
	c.ch <- req{kind: reqFlush, flush: done}
	<-done
}

func (c *Cache) loop() {
	for r := range c.ch {
		switch r.kind {
		case reqState:
			c.applyState(r.state)
		case reqTxn:
			c.applyTxn(r.txn)
		case reqFlush:
			close(r.flush)
		}
	}
}

func (c *Cache) applyState(r stateRow) {
	b, err := json.Marshal(r.Contents)
	if err != nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, _ = c.db.Exec(`
		INSERT INTO containers (container_id, tick, contents_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(container_id) DO UPDATE SET
			tick = excluded.tick,
			contents_json = excluded.contents_json,
			updated_at = excluded.updated_at
		WHERE excluded.tick >= containers.tick`,
		r.ContainerID, r.Tick, string(b), now)
}

func (c *Cache) applyTxn(r txnRow) {
	_, _ = c.db.Exec(`
		INSERT OR REPLACE INTO txns (txn_id, status, container_id, kind, item_type, price, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.TxnID, r.Status, r.ContainerID, r.Kind, r.ItemType, r.Price, r.RecordedAt)
}
