package transfer

import (
	"fmt"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
)

// Capability is the external boundary that moves value between principals.
// Implementations are untrusted: they may fail outright, report success
// without effect, deliver less than requested, or call back into the engine.
// Callers must therefore measure actual effect via balance deltas and never
// rely on a nil error alone for inbound moves.
type Capability interface {
	// BalanceOf returns the current balance a holder has in an asset.
	BalanceOf(id asset.ID, holder uuid.UUID) (int64, error)

	// Transfer moves amount of an asset from one principal to another.
	Transfer(id asset.ID, from, to uuid.UUID, amount int64) error
}

// MoveMeasured transfers amount from one principal to another and returns the
// amount actually received, measured by the recipient's balance delta. A nil
// error with a zero or negative delta is still reported as received=0: the
// capability's success signal is never trusted over the measured effect.
func MoveMeasured(cap Capability, id asset.ID, from, to uuid.UUID, amount int64) (int64, error) {
	before, err := cap.BalanceOf(id, to)
	if err != nil {
		return 0, fmt.Errorf("balance before transfer: %w", err)
	}

	if err := cap.Transfer(id, from, to, amount); err != nil {
		return 0, err
	}

	after, err := cap.BalanceOf(id, to)
	if err != nil {
		return 0, fmt.Errorf("balance after transfer: %w", err)
	}

	delta := after - before
	if delta <= 0 {
		return 0, nil
	}
	return delta, nil
}
