package event

import (
	"time"
)

// Type discriminator for notification payloads
type Type int32

const (
	TypeUnknown Type = iota
	TypeOrderCreated
	TypeOrderFilled
	TypeOrderCanceled
	TypeOrderSwept
	TypeLedgerCredited
	TypeLedgerWithdrawn
	TypeFeeConfigUpdated
	TypeAllowlistUpdated
	TypeCreationPauseUpdated
)

// Envelope wraps every emitted notification. Consumers reconstruct engine
// state from envelopes alone, without re-deriving it.
type Envelope struct {
	// Engine-assigned monotonic emission sequence
	Sequence uint64 `json:"sequence"`

	// Payload type discriminator
	Type Type `json:"type"`

	// Engine clock at emission
	Timestamp time.Time `json:"timestamp"`

	// Type-specific payload
	Payload Event `json:"payload"`
}

// Event is the interface all notification payloads implement
type Event interface {
	EventType() Type
}

func (t Type) String() string {
	switch t {
	case TypeOrderCreated:
		return "OrderCreated"
	case TypeOrderFilled:
		return "OrderFilled"
	case TypeOrderCanceled:
		return "OrderCanceled"
	case TypeOrderSwept:
		return "OrderSwept"
	case TypeLedgerCredited:
		return "LedgerCredited"
	case TypeLedgerWithdrawn:
		return "LedgerWithdrawn"
	case TypeFeeConfigUpdated:
		return "FeeConfigUpdated"
	case TypeAllowlistUpdated:
		return "AllowlistUpdated"
	case TypeCreationPauseUpdated:
		return "CreationPauseUpdated"
	default:
		return "Unknown"
	}
}
