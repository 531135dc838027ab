package protocol

import "encoding/json"

const Version = "1.2"

// Message types.
const (
	TypeLock                = "LOCK"
	TypeLockResponse        = "LOCK_RESPONSE"
	TypeLockConfirm         = "LOCK_CONFIRM"
	TypeLockConfirmResponse = "LOCK_CONFIRM_RESPONSE"
	TypeUnlock              = "UNLOCK"
	TypeSave                = "SAVE"
	TypeBuy                 = "BUY"
	TypeSell                = "SELL"
	TypeState               = "STATE"
	TypeProcessingComplete  = "PROCESSING_COMPLETE"
	TypeCookingComplete     = "COOKING_COMPLETE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
