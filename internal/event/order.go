package event

import (
	"time"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
)

// OrderCreated is emitted when an order enters the Active state.
type OrderCreated struct {
	OrderID      uint64    `json:"order_id"`
	Maker        uuid.UUID `json:"maker"`
	Counterparty uuid.UUID `json:"counterparty,omitempty"` // zero = open order
	SellAsset    asset.ID  `json:"sell_asset"`
	SellAmount   int64     `json:"sell_amount"` // measured escrow delta
	BuyAsset     asset.ID  `json:"buy_asset"`
	BuyAmount    int64     `json:"buy_amount"`
	FeeAsset     asset.ID  `json:"fee_asset"`
	FeeAmount    int64     `json:"fee_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e *OrderCreated) EventType() Type { return TypeOrderCreated }

// OrderFilled is emitted after both legs of a fill settle.
type OrderFilled struct {
	OrderID    uint64    `json:"order_id"`
	Maker      uuid.UUID `json:"maker"`
	Taker      uuid.UUID `json:"taker"`
	SellAsset  asset.ID  `json:"sell_asset"`
	SellAmount int64     `json:"sell_amount"`
	BuyAsset   asset.ID  `json:"buy_asset"`
	BuyAmount  int64     `json:"buy_amount"`
}

func (e *OrderFilled) EventType() Type { return TypeOrderFilled }

// OrderCanceled is emitted when a maker recovers an active order's escrow.
// The escrow moves to the maker's claimable ledger, never inline.
type OrderCanceled struct {
	OrderID    uint64    `json:"order_id"`
	Maker      uuid.UUID `json:"maker"`
	SellAsset  asset.ID  `json:"sell_asset"`
	SellAmount int64     `json:"sell_amount"`
}

func (e *OrderCanceled) EventType() Type { return TypeOrderCanceled }

// OrderSwept is emitted when the cleanup engine tombstones an order.
type OrderSwept struct {
	OrderID     uint64    `json:"order_id"`
	Caller      uuid.UUID `json:"caller"`
	Maker       uuid.UUID `json:"maker"`
	MakerCredit int64     `json:"maker_credit"` // escrow returned via ledger, 0 if not Active
	SellAsset   asset.ID  `json:"sell_asset"`
	Reward      int64     `json:"reward"`
	RewardAsset asset.ID  `json:"reward_asset"`
}

func (e *OrderSwept) EventType() Type { return TypeOrderSwept }
