package event

import (
	"EscrowDesk/internal/asset"
)

// FeeConfigUpdated is emitted when the owner changes the global fee.
// Only orders created after the update carry the new snapshot.
type FeeConfigUpdated struct {
	FeeAsset  asset.ID `json:"fee_asset"`
	FeeAmount int64    `json:"fee_amount"`
}

func (e *FeeConfigUpdated) EventType() Type { return TypeFeeConfigUpdated }

// AllowlistUpdated is emitted after a batched allowlist mutation.
type AllowlistUpdated struct {
	Added   []asset.ID `json:"added,omitempty"`
	Removed []asset.ID `json:"removed,omitempty"`
}

func (e *AllowlistUpdated) EventType() Type { return TypeAllowlistUpdated }

// CreationPauseUpdated is emitted when new-order creation is paused or resumed.
type CreationPauseUpdated struct {
	Paused bool `json:"paused"`
}

func (e *CreationPauseUpdated) EventType() Type { return TypeCreationPauseUpdated }
