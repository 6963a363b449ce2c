package event

import (
	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
)

// LedgerCredited is emitted whenever the claimable ledger is credited.
type LedgerCredited struct {
	Principal uuid.UUID `json:"principal"`
	Asset     asset.ID  `json:"asset"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	OrderID   uint64    `json:"order_id,omitempty"`
}

func (e *LedgerCredited) EventType() Type { return TypeLedgerCredited }

// LedgerWithdrawn is emitted after a successful external payout.
type LedgerWithdrawn struct {
	Principal uuid.UUID `json:"principal"`
	Asset     asset.ID  `json:"asset"`
	Amount    int64     `json:"amount"`
	Remaining int64     `json:"remaining"`
}

func (e *LedgerWithdrawn) EventType() Type { return TypeLedgerWithdrawn }
