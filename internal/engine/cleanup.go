package engine

import (
	"time"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
	"EscrowDesk/internal/event"
	"EscrowDesk/internal/ledger"
)

// SweepOutcome describes what a single Sweep call did.
type SweepOutcome uint8

const (
	// SweepOutcomeSwept: the order at the cursor was tombstoned.
	SweepOutcomeSwept SweepOutcome = iota + 1
	// SweepOutcomeSkipped: the slot at the cursor was already a tombstone;
	// the cursor advanced one position and nothing else happened.
	SweepOutcomeSkipped
)

// SweepResult reports the effect of a Sweep call.
type SweepResult struct {
	Outcome     SweepOutcome
	OrderID     uint64
	PriorStatus Status   // status the order held before deletion
	MakerCredit int64    // escrow returned to the maker's ledger, 0 unless Active
	Reward      int64    // fee credited to the caller's ledger
	RewardAsset asset.ID // the order's snapshotted fee asset
}

// Sweep is the permissionless cleanup entry point. It processes exactly one
// queue slot per call, strictly FIFO at the cursor: it never skips ahead to
// a later eligible order, so a young head order blocks the queue until it
// ages out (accepted head-of-line limitation). Repeated calls drain a
// backlog one slot at a time, which bounds per-call cost against an
// attacker-inflated queue.
//
// Eligible orders still Active have their escrow credited back to the maker,
// then the snapshotted fee is released from the liability pool and credited
// to the caller as the reward. Both movements are ledger credits, never
// inline transfers, so a misbehaving asset cannot block deletion and the
// cursor always makes forward progress once an order is eligible.
func (e *Engine) Sweep(caller uuid.UUID) (SweepResult, error) {
	if err := e.guard.enter(); err != nil {
		return SweepResult{}, err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("sweep", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == uuid.Nil {
		e.reject("sweep", "validation")
		return SweepResult{}, ErrZeroPrincipal
	}
	if e.cursor >= e.nextSeq {
		e.reject("sweep", "queue_empty")
		return SweepResult{}, ErrQueueEmpty
	}

	id := e.cursor

	o, ok := e.orders[id]
	if !ok {
		// Tombstone at the head: advance and let the next call progress.
		e.cursor++
		if e.metrics != nil {
			e.metrics.SweepCursor.Set(float64(e.cursor))
		}
		return SweepResult{Outcome: SweepOutcomeSkipped, OrderID: id}, nil
	}

	if e.clock().Before(o.CreatedAt.Add(e.lifetime + e.grace)) {
		e.reject("sweep", "not_due")
		return SweepResult{}, ErrSweepNotDue
	}

	// Release the snapshotted fee first: it is the only fallible step, and
	// a failure here means the liability ledger is inconsistent. Abort
	// with nothing mutated rather than paper over it.
	if err := e.fees.Release(o.FeeAsset, o.FeeAmount); err != nil {
		e.reject("sweep", "invariant")
		return SweepResult{}, err
	}

	res := SweepResult{
		Outcome:     SweepOutcomeSwept,
		OrderID:     id,
		PriorStatus: o.Status,
		Reward:      o.FeeAmount,
		RewardAsset: o.FeeAsset,
	}

	// An order that expired before being filled or canceled still holds the
	// maker's escrow; protect the principal on deletion.
	if o.Status == StatusActive {
		if err := e.credit(o.Maker, o.SellAsset, o.SellAmount, ledger.ReasonExpiredEscrow, id); err != nil {
			return SweepResult{}, err
		}
		res.MakerCredit = o.SellAmount
	}

	if err := e.credit(caller, o.FeeAsset, o.FeeAmount, ledger.ReasonSweepReward, id); err != nil {
		return SweepResult{}, err
	}

	delete(e.orders, id)
	e.cursor++

	if e.metrics != nil {
		e.metrics.OrdersSwept.WithLabelValues(res.PriorStatus.String()).Inc()
		e.metrics.SweepCursor.Set(float64(e.cursor))
		e.metrics.LiveOrders.Set(float64(len(e.orders)))
		e.metrics.FeeLiability.WithLabelValues(o.FeeAsset.String()).Set(float64(e.fees.Liability(o.FeeAsset)))
	}

	e.emit(&event.OrderSwept{
		OrderID:     id,
		Caller:      caller,
		Maker:       o.Maker,
		MakerCredit: res.MakerCredit,
		SellAsset:   o.SellAsset,
		Reward:      o.FeeAmount,
		RewardAsset: o.FeeAsset,
	})

	return res, nil
}
