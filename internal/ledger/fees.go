package ledger

import (
	"errors"
	"fmt"

	"EscrowDesk/internal/asset"
)

var ErrInsufficientLiability = errors.New("ledger: insufficient fee liability")

// FeePool tracks the protocol fee liability owed to future cleanup callers.
// Liability is keyed strictly per asset: one bucket per distinct fee asset,
// never a scalar summed across assets of different units.
type FeePool struct {
	liability map[asset.ID]int64
}

func NewFeePool() *FeePool {
	return &FeePool{liability: make(map[asset.ID]int64)}
}

// Accrue adds to the asset's liability bucket (order creation).
func (f *FeePool) Accrue(id asset.ID, amount int64) error {
	if !id.Valid() {
		return ErrZeroAsset
	}
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrBadAmount, amount)
	}
	f.liability[id] += amount
	return nil
}

// Release decrements the asset's liability bucket. The only way liability
// shrinks; refuses to underflow.
func (f *FeePool) Release(id asset.ID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrBadAmount, amount)
	}
	have := f.liability[id]
	if amount > have {
		return fmt.Errorf("%w: asset=%s have=%d want=%d", ErrInsufficientLiability, id, have, amount)
	}
	remaining := have - amount
	if remaining == 0 {
		delete(f.liability, id)
	} else {
		f.liability[id] = remaining
	}
	return nil
}

// Liability returns the accumulated liability for an asset.
func (f *FeePool) Liability(id asset.ID) int64 {
	return f.liability[id]
}
