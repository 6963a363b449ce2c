package engine

import (
	"time"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
)

// Status of an order. Orders are created Active; Filled and Canceled are
// terminal states that only cleanup removes.
type Status uint8

const (
	StatusActive Status = iota + 1
	StatusFilled
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFilled:
		return "filled"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Order is an escrowed offer to exchange SellAmount of SellAsset for
// BuyAmount of BuyAsset. Identified by a sequence number that is assigned
// once and never reused: after cleanup the slot is a tombstone forever.
type Order struct {
	ID    uint64
	Maker uuid.UUID

	// Optional restricted counterparty; zero means open to any principal.
	Counterparty uuid.UUID

	// The principal that actually filled the order, recorded on fill even
	// for open orders.
	Taker uuid.UUID

	SellAsset asset.ID

	// The amount actually escrowed, measured by balance delta at creation.
	// Taxing assets make this smaller than the requested amount; fill and
	// cleanup never move more than this.
	SellAmount int64

	BuyAsset  asset.ID
	BuyAmount int64

	CreatedAt time.Time
	Status    Status

	// Immutable snapshot of the fee economics charged at creation. Later
	// global fee configuration changes never touch these.
	FeeAsset  asset.ID
	FeeAmount int64
}
