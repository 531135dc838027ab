package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Lock layer.
	ErrLocked   = "E_LOCKED"
	ErrLockLost = "E_LOCK_LOST"
	ErrDenied   = "E_DENIED"

	// Trade/mutation layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrNoFunds    = "E_NO_FUNDS"
	ErrNoStock    = "E_NO_STOCK"
	ErrStale      = "E_STALE"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrLocked:          {},
	ErrLockLost:        {},
	ErrDenied:          {},
	ErrBadRequest:      {},
	ErrNoFunds:         {},
	ErrNoStock:         {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
