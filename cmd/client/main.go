package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"stashcraft.gg/internal/persistence/cachedb"
	"stashcraft.gg/internal/persistence/journal"
	"stashcraft.gg/internal/sched"
	"stashcraft.gg/internal/session"
	"stashcraft.gg/internal/stash"
	"stashcraft.gg/internal/tuning"
)

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Send(v any) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return t.conn.WriteJSON(v)
}

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		tuningPath = flag.String("tuning", "", "tuning.yaml path (empty = defaults)")
		journalDir = flag.String("journal-dir", "data/journal", "transaction journal directory")
		cachePath  = flag.String("cache-db", "data/cache.db", "container cache sqlite path")
		container  = flag.String("container", "", "container id to open on start")
		structure  = flag.String("structure", "crate", "structure type of the container")
		cols       = flag.Int("cols", 6, "container columns")
		rows       = flag.Int("rows", 4, "container rows")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[client] ", log.LstdFlags|log.Lmicroseconds)

	tun, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	jw := journal.NewWriter(*journalDir, "session")
	defer jw.Close()

	cache, err := cachedb.Open(*cachePath)
	if err != nil {
		logger.Fatalf("cache db: %v", err)
	}
	defer cache.Close()

	sess := session.New(logger, tun, sched.Wall{}, &wsTransport{conn: conn}, session.Hooks{
		Opened: func(c *stash.Container) {
			logger.Printf("opened %s (%dx%d, %d items)", c.ID, c.Cols, c.Rows, len(c.Items))
		},
		Closed: func(id, reason string) {
			logger.Printf("container %s closed: %s", id, reason)
		},
		Denied: func(id, reason string) {
			logger.Printf("lock denied on %s: %s", id, reason)
		},
		Completion: func(id, itemID string, cooking bool) {
			logger.Printf("completed item %s in %s (cooking=%v)", itemID, id, cooking)
		},
	}).WithJournal(jw).WithCache(cache)

	if *container != "" {
		// Show the last cached contents while the lock is in flight.
		if contents, tick, ok, err := cache.LastKnown(*container); err == nil && ok {
			logger.Printf("cached view of %s: %d items as of tick %d", *container, len(contents), tick)
		}
		if err := sess.RequestLock(*container, [3]int{}, session.ContainerConfig{
			StructureType: *structure,
			Cols:          *cols,
			Rows:          *rows,
			Accept:        stash.AcceptPolicy{Kind: stash.AcceptAll},
		}); err != nil {
			logger.Fatalf("lock request: %v", err)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Printf("read: %v", err)
				return
			}
			if err := sess.HandleMessage(msg); err != nil {
				logger.Printf("message: %v", err)
			}
		}
	}()

	select {
	case <-stop:
	case <-done:
	}
	sess.Release()
}
