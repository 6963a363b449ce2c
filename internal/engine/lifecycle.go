package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
	"EscrowDesk/internal/event"
	"EscrowDesk/internal/ledger"
	"EscrowDesk/internal/transfer"
)

// Create escrows sellAmount of sellAsset from the maker against buyAmount of
// buyAsset, charging the current global fee, and returns the new order id.
//
// Both inbound pulls are measured by balance delta: the order records what
// actually arrived, not what was requested, so a taxing asset can never make
// the engine promise more than it holds. A zero measured delta aborts.
func (e *Engine) Create(maker, counterparty uuid.UUID, sellAsset asset.ID, sellAmount int64, buyAsset asset.ID, buyAmount int64) (uint64, error) {
	if err := e.guard.enter(); err != nil {
		return 0, err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("create", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		e.reject("create", "paused")
		return 0, ErrCreationPaused
	}
	if maker == uuid.Nil {
		e.reject("create", "validation")
		return 0, ErrZeroPrincipal
	}
	if !sellAsset.Valid() || !buyAsset.Valid() {
		e.reject("create", "validation")
		return 0, ErrInvalidAsset
	}
	if sellAsset == buyAsset {
		e.reject("create", "validation")
		return 0, ErrSameAsset
	}
	if sellAmount <= 0 || buyAmount <= 0 {
		e.reject("create", "validation")
		return 0, ErrInvalidAmount
	}
	if !e.allow.Contains(sellAsset) || !e.allow.Contains(buyAsset) {
		e.reject("create", "not_allowed")
		return 0, ErrAssetNotAllowed
	}

	// Snapshot the fee economics before touching the outside world.
	feeAsset, feeAmount := e.feeAsset, e.feeAmount

	// No internal state has been mutated yet, so the two inbound pulls are
	// safe to run first: if either fails, the only thing to undo is the
	// already-received fee.
	feeGot, err := transfer.MoveMeasured(e.bank, feeAsset, maker, e.custodian, feeAmount)
	if err != nil {
		e.reject("create", "transfer")
		return 0, fmt.Errorf("pull fee: %w", err)
	}
	if feeGot == 0 {
		e.reject("create", "transfer")
		return 0, fmt.Errorf("pull fee: %w", ErrNothingReceived)
	}

	sellGot, err := transfer.MoveMeasured(e.bank, sellAsset, maker, e.custodian, sellAmount)
	if err != nil || sellGot == 0 {
		e.refund(feeAsset, maker, feeGot)
		e.reject("create", "transfer")
		if err != nil {
			return 0, fmt.Errorf("pull escrow: %w", err)
		}
		return 0, fmt.Errorf("pull escrow: %w", ErrNothingReceived)
	}

	if err := e.fees.Accrue(feeAsset, feeGot); err != nil {
		// Unreachable with a valid snapshot; refund and surface it anyway.
		e.refund(sellAsset, maker, sellGot)
		e.refund(feeAsset, maker, feeGot)
		return 0, err
	}

	id := e.nextSeq
	e.nextSeq++

	o := &Order{
		ID:           id,
		Maker:        maker,
		Counterparty: counterparty,
		SellAsset:    sellAsset,
		SellAmount:   sellGot,
		BuyAsset:     buyAsset,
		BuyAmount:    buyAmount,
		CreatedAt:    e.clock(),
		Status:       StatusActive,
		FeeAsset:     feeAsset,
		FeeAmount:    feeGot,
	}
	e.orders[id] = o

	if e.metrics != nil {
		e.metrics.OrdersCreated.Inc()
		e.metrics.NextSequence.Set(float64(e.nextSeq))
		e.metrics.LiveOrders.Set(float64(len(e.orders)))
		e.metrics.FeeLiability.WithLabelValues(feeAsset.String()).Set(float64(e.fees.Liability(feeAsset)))
	}

	e.emit(&event.OrderCreated{
		OrderID:      id,
		Maker:        maker,
		Counterparty: counterparty,
		SellAsset:    sellAsset,
		SellAmount:   sellGot,
		BuyAsset:     buyAsset,
		BuyAmount:    buyAmount,
		FeeAsset:     feeAsset,
		FeeAmount:    feeGot,
		CreatedAt:    o.CreatedAt,
	})

	return id, nil
}

// Fill settles an active order: pulls the buy amount from the caller to the
// maker and releases the escrowed sell amount to the caller. Both legs must
// deliver the exact recorded amounts; anything less aborts the whole fill
// and the already-moved leg is compensated.
func (e *Engine) Fill(id uint64, caller uuid.UUID) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("fill", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == uuid.Nil {
		e.reject("fill", "validation")
		return ErrZeroPrincipal
	}

	o, ok := e.orders[id]
	if !ok {
		e.reject("fill", "not_found")
		return ErrOrderNotFound
	}
	if o.Status != StatusActive {
		e.reject("fill", "not_active")
		return ErrOrderNotActive
	}
	if e.clock().After(o.CreatedAt.Add(e.lifetime)) {
		e.reject("fill", "expired")
		return ErrOrderExpired
	}
	if o.Counterparty != uuid.Nil && caller != o.Counterparty {
		e.reject("fill", "authorization")
		return ErrWrongCounterparty
	}

	// Effects before interactions: a reentrant observer must already see
	// the order as Filled with its taker recorded.
	o.Status = StatusFilled
	o.Taker = caller

	rollback := func() {
		o.Status = StatusActive
		o.Taker = uuid.Nil
	}

	buyGot, err := transfer.MoveMeasured(e.bank, o.BuyAsset, caller, o.Maker, o.BuyAmount)
	if err != nil || buyGot != o.BuyAmount {
		rollback()
		if buyGot > 0 {
			e.compensate(o.BuyAsset, o.Maker, caller, buyGot)
		}
		e.reject("fill", "transfer")
		if err != nil {
			return fmt.Errorf("pull buy leg: %w", err)
		}
		return fmt.Errorf("pull buy leg: %w: got %d, want %d", ErrShortDelivery, buyGot, o.BuyAmount)
	}

	sellGot, err := transfer.MoveMeasured(e.bank, o.SellAsset, e.custodian, caller, o.SellAmount)
	if err != nil || sellGot != o.SellAmount {
		rollback()
		e.compensate(o.BuyAsset, o.Maker, caller, buyGot)
		if sellGot > 0 {
			e.compensate(o.SellAsset, caller, e.custodian, sellGot)
		}
		e.reject("fill", "transfer")
		if err != nil {
			return fmt.Errorf("release sell leg: %w", err)
		}
		return fmt.Errorf("release sell leg: %w: got %d, want %d", ErrShortDelivery, sellGot, o.SellAmount)
	}

	if e.metrics != nil {
		e.metrics.OrdersFilled.Inc()
	}

	e.emit(&event.OrderFilled{
		OrderID:    id,
		Maker:      o.Maker,
		Taker:      caller,
		SellAsset:  o.SellAsset,
		SellAmount: o.SellAmount,
		BuyAsset:   o.BuyAsset,
		BuyAmount:  o.BuyAmount,
	})

	return nil
}

// Cancel lets the maker recover an active order's escrow, with no deadline:
// however stale the order, the maker can always take it back. The escrow is
// credited to the claimable ledger, never transferred inline, so a
// misbehaving asset cannot block the state transition.
func (e *Engine) Cancel(id uint64, caller uuid.UUID) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("cancel", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[id]
	if !ok {
		e.reject("cancel", "not_found")
		return ErrOrderNotFound
	}
	if o.Status != StatusActive {
		e.reject("cancel", "not_active")
		return ErrOrderNotActive
	}
	if caller != o.Maker {
		e.reject("cancel", "authorization")
		return ErrNotMaker
	}

	o.Status = StatusCanceled
	if err := e.credit(o.Maker, o.SellAsset, o.SellAmount, ledger.ReasonCancel, id); err != nil {
		// Cannot happen with a well-formed order; refuse to half-cancel.
		o.Status = StatusActive
		return err
	}

	if e.metrics != nil {
		e.metrics.OrdersCanceled.Inc()
	}

	e.emit(&event.OrderCanceled{
		OrderID:    id,
		Maker:      o.Maker,
		SellAsset:  o.SellAsset,
		SellAmount: o.SellAmount,
	})

	return nil
}

// Withdraw pays out part of the caller's claimable balance. The ledger is
// debited before the external transfer; a failed transfer restores the
// debit so the call leaves no trace.
func (e *Engine) Withdraw(caller uuid.UUID, id asset.ID, amount int64) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("withdraw", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == uuid.Nil {
		e.reject("withdraw", "validation")
		return ErrZeroPrincipal
	}
	if !id.Valid() {
		e.reject("withdraw", "validation")
		return ErrInvalidAsset
	}

	if err := e.claims.Debit(caller, id, amount); err != nil {
		e.reject("withdraw", "validation")
		return err
	}

	if err := e.bank.Transfer(id, e.custodian, caller, amount); err != nil {
		if cerr := e.claims.Credit(caller, id, amount, ledger.ReasonReversal); cerr != nil {
			e.log.Error().Err(cerr).
				Str("principal", caller.String()).
				Str("asset", id.String()).
				Int64("amount", amount).
				Msg("ledger rollback failed after payout failure")
		}
		e.reject("withdraw", "transfer")
		return fmt.Errorf("payout: %w", err)
	}

	if e.metrics != nil {
		e.metrics.LedgerWithdrawn.Inc()
		e.metrics.ClaimableEntries.Set(float64(e.claims.Entries()))
	}

	e.emit(&event.LedgerWithdrawn{
		Principal: caller,
		Asset:     id,
		Amount:    amount,
		Remaining: e.claims.Owed(caller, id),
	})

	return nil
}

// Withdrawal reports one asset drained by WithdrawAll.
type Withdrawal struct {
	Asset  asset.ID
	Amount int64
}

// WithdrawAll drains up to maxAssets of the caller's claimable entries,
// working from the tail of the enumerable list so every removal is an O(1)
// pop. Stale zero-balance entries are removed without counting against the
// cap. The first transfer failure aborts the batch: earlier assets stay
// drained, the failing asset is restored, later assets are never touched.
func (e *Engine) WithdrawAll(caller uuid.UUID, maxAssets int) ([]Withdrawal, error) {
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()

	start := time.Now()
	defer e.observe("withdraw_all", start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == uuid.Nil {
		e.reject("withdraw_all", "validation")
		return nil, ErrZeroPrincipal
	}
	if maxAssets <= 0 {
		e.reject("withdraw_all", "validation")
		return nil, ErrInvalidLimit
	}

	list := e.claims.Assets(caller)
	drained := make([]Withdrawal, 0, maxAssets)

	for i := len(list) - 1; i >= 0 && len(drained) < maxAssets; i-- {
		id := list[i]

		amount := e.claims.Owed(caller, id)
		if amount == 0 {
			e.claims.DropZero(caller, id)
			continue
		}

		if err := e.claims.Debit(caller, id, amount); err != nil {
			return drained, err
		}

		if err := e.bank.Transfer(id, e.custodian, caller, amount); err != nil {
			if cerr := e.claims.Credit(caller, id, amount, ledger.ReasonReversal); cerr != nil {
				e.log.Error().Err(cerr).
					Str("principal", caller.String()).
					Str("asset", id.String()).
					Int64("amount", amount).
					Msg("ledger rollback failed after payout failure")
			}
			e.reject("withdraw_all", "transfer")
			return drained, fmt.Errorf("payout %s: %w", id, err)
		}

		drained = append(drained, Withdrawal{Asset: id, Amount: amount})

		if e.metrics != nil {
			e.metrics.LedgerWithdrawn.Inc()
			e.metrics.ClaimableEntries.Set(float64(e.claims.Entries()))
		}
		e.emit(&event.LedgerWithdrawn{
			Principal: caller,
			Asset:     id,
			Amount:    amount,
			Remaining: 0,
		})
	}

	return drained, nil
}

// credit books value into the claimable ledger and emits the notification.
func (e *Engine) credit(principal uuid.UUID, id asset.ID, amount int64, reason ledger.Reason, orderID uint64) error {
	if err := e.claims.Credit(principal, id, amount, reason); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	if e.metrics != nil {
		e.metrics.LedgerCredits.WithLabelValues(reason.String()).Inc()
		e.metrics.ClaimableEntries.Set(float64(e.claims.Entries()))
	}

	e.emit(&event.LedgerCredited{
		Principal: principal,
		Asset:     id,
		Amount:    amount,
		Reason:    reason.String(),
		OrderID:   orderID,
	})

	return nil
}

// refund returns an already-received inbound amount after a later step of
// the same call failed. Best effort: the capability already misbehaved once,
// so a refund failure is logged rather than propagated.
func (e *Engine) refund(id asset.ID, to uuid.UUID, amount int64) {
	if amount <= 0 {
		return
	}
	if err := e.bank.Transfer(id, e.custodian, to, amount); err != nil {
		e.log.Error().Err(err).
			Str("asset", id.String()).
			Str("principal", to.String()).
			Int64("amount", amount).
			Msg("refund after aborted create failed")
	}
}

// compensate reverses a completed fill leg after the other leg failed.
func (e *Engine) compensate(id asset.ID, from, to uuid.UUID, amount int64) {
	if amount <= 0 {
		return
	}
	if err := e.bank.Transfer(id, from, to, amount); err != nil {
		e.log.Error().Err(err).
			Str("asset", id.String()).
			Int64("amount", amount).
			Msg("compensating transfer after aborted fill failed")
	}
}

func (e *Engine) observe(op string, start time.Time) {
	if e.metrics != nil {
		e.metrics.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
