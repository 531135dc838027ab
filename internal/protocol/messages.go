package protocol

// WireItem is one placed item inside a container as it travels on the wire.
// Optional attributes are pointers so "absent" and "zero" stay distinct.
type WireItem struct {
	ID         string `json:"id"`
	ItemType   string `json:"item_type"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Rotation   int    `json:"rotation,omitempty"` // 0 or 90
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Quality    int    `json:"quality"`
	Durability *int   `json:"durability,omitempty"`
	Quantity   *int   `json:"quantity,omitempty"`

	BurnStartTick     uint64 `json:"burn_start_tick,omitempty"`
	CookStartTick     uint64 `json:"cook_start_tick,omitempty"`
	CookDurationTicks uint64 `json:"cook_duration_ticks,omitempty"`
}

// LOCK (client -> server)
type LockMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ContainerID     string `json:"container_id"`
	Pos             [3]int `json:"pos"`
}

// LOCK_RESPONSE (server -> client)
type LockResponseMsg struct {
	Type        string     `json:"type"`
	ContainerID string     `json:"container_id"`
	Success     bool       `json:"success"`
	Contents    []WireItem `json:"contents,omitempty"`
	Cols        int        `json:"cols,omitempty"`
	Rows        int        `json:"rows,omitempty"`
	Tick        uint64     `json:"tick,omitempty"`
	Code        string     `json:"code,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// LOCK_CONFIRM (client -> server)
type LockConfirmMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ContainerID     string `json:"container_id"`
}

// LOCK_CONFIRM_RESPONSE (server -> client)
type LockConfirmResponseMsg struct {
	Type        string `json:"type"`
	ContainerID string `json:"container_id"`
	Confirmed   bool   `json:"confirmed"`
	Code        string `json:"code,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// UNLOCK (client -> server, fire and forget)
type UnlockMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ContainerID     string `json:"container_id"`
}

// SAVE (client -> server). Full-state contents; only legal while the lock is
// held and the container's contents were previously loaded from the server.
type SaveMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ContainerID     string     `json:"container_id"`
	Contents        []WireItem `json:"contents"`
}

// BUY / SELL (client -> server). Price is advisory; the server recomputes.
type TradeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ContainerID     string `json:"container_id"`
	ItemType        string `json:"item_type"`
	Quality         int    `json:"quality"`
	Durability      *int   `json:"durability,omitempty"`
	Price           int    `json:"price"`
	TxnID           string `json:"txn_id"`
}

// STATE (server -> client). Full authoritative container state. TxnID is set
// when the push acknowledges a specific client transaction.
type StateMsg struct {
	Type        string     `json:"type"`
	ContainerID string     `json:"container_id"`
	Tick        uint64     `json:"tick"`
	Contents    []WireItem `json:"contents"`
	Coins       *int64     `json:"coins,omitempty"`
	Stock       *int       `json:"stock,omitempty"`
	TxnID       string     `json:"txn_id,omitempty"`
}

// PROCESSING_COMPLETE / COOKING_COMPLETE (client -> server). Emitted once when
// a local decay sweep sees an item's progress reach 100%.
type CompleteMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ContainerID     string `json:"container_id"`
	ItemID          string `json:"item_id"`
}
