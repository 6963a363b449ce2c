package engine

import (
	"time"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
	"EscrowDesk/internal/event"
)

// SetFeeConfig updates the global fee asset and amount. Owner only. Orders
// created before the update keep the snapshot they were charged under.
func (e *Engine) SetFeeConfig(caller uuid.UUID, id asset.ID, amount int64) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("set_fee", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		e.reject("set_fee", "authorization")
		return ErrNotOwner
	}
	if !id.Valid() {
		e.reject("set_fee", "validation")
		return ErrInvalidAsset
	}
	if amount <= 0 {
		e.reject("set_fee", "validation")
		return ErrInvalidAmount
	}

	e.feeAsset = id
	e.feeAmount = amount

	e.emit(&event.FeeConfigUpdated{FeeAsset: id, FeeAmount: amount})
	return nil
}

// SetPaused disables or re-enables new order creation. Owner only. Fills,
// cancels, cleanup and withdrawals keep working while paused.
func (e *Engine) SetPaused(caller uuid.UUID, paused bool) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("set_paused", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		e.reject("set_paused", "authorization")
		return ErrNotOwner
	}

	e.paused = paused

	e.emit(&event.CreationPauseUpdated{Paused: paused})
	return nil
}

// UpdateAllowlist applies batched membership changes. Owner only. Each batch
// is bounded by asset.MaxBatch. Removals apply after additions; neither
// batch may be oversized, and an empty update (both nil) is rejected via
// the registry's empty-batch check.
func (e *Engine) UpdateAllowlist(caller uuid.UUID, add, remove []asset.ID) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("update_allowlist", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		e.reject("update_allowlist", "authorization")
		return ErrNotOwner
	}

	// Validate both batches before applying either, so a rejected call
	// never leaves a half-applied update.
	if len(add) == 0 && len(remove) == 0 {
		e.reject("update_allowlist", "validation")
		return asset.ErrEmptyBatch
	}
	if len(add) > asset.MaxBatch || len(remove) > asset.MaxBatch {
		e.reject("update_allowlist", "validation")
		return asset.ErrBatchTooLarge
	}
	for _, id := range add {
		if !id.Valid() {
			e.reject("update_allowlist", "validation")
			return asset.ErrZeroAsset
		}
	}
	for _, id := range remove {
		if !id.Valid() {
			e.reject("update_allowlist", "validation")
			return asset.ErrZeroAsset
		}
	}

	if len(add) > 0 {
		if err := e.allow.Add(add); err != nil {
			return err
		}
	}
	if len(remove) > 0 {
		if err := e.allow.Remove(remove); err != nil {
			return err
		}
	}

	e.emit(&event.AllowlistUpdated{Added: add, Removed: remove})
	return nil
}
