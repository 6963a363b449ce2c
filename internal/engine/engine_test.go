package engine_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"EscrowDesk/internal/asset"
	"EscrowDesk/internal/engine"
	"EscrowDesk/internal/transfer"
)

const (
	btc  = asset.ID("BTC")
	eth  = asset.ID("ETH")
	usdt = asset.ID("USDT")
	usdc = asset.ID("USDC")
	doge = asset.ID("DOGE") // never on the allowlist

	feeAmount = 10
	lifetime  = 24 * time.Hour
	grace     = 24 * time.Hour
)

// rig wires an engine over a fresh in-memory bank with a manual clock.
// alice and bob start funded in every allowed asset.
type rig struct {
	t    *testing.T
	eng  *engine.Engine
	bank *transfer.Bank
	now  time.Time

	owner     uuid.UUID
	custodian uuid.UUID
	alice     uuid.UUID
	bob       uuid.UUID
	carol     uuid.UUID
}

func newRig(t *testing.T) *rig {
	return newRigCap(t, nil)
}

// newRigCap lets a test interpose a misbehaving capability over the bank.
func newRigCap(t *testing.T, wrap func(*transfer.Bank) transfer.Capability) *rig {
	t.Helper()

	r := &rig{
		t:         t,
		bank:      transfer.NewBank(),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		owner:     uuid.New(),
		custodian: uuid.New(),
		alice:     uuid.New(),
		bob:       uuid.New(),
		carol:     uuid.New(),
	}

	for _, id := range []asset.ID{btc, eth, usdt, usdc} {
		r.bank.Mint(id, r.alice, 10_000)
		r.bank.Mint(id, r.bob, 10_000)
	}

	var cap transfer.Capability = r.bank
	if wrap != nil {
		cap = wrap(r.bank)
	}

	eng, err := engine.New(engine.Config{
		Owner:         r.owner,
		Custodian:     r.custodian,
		Transfer:      cap,
		Allowlist:     []asset.ID{btc, eth, usdt, usdc},
		FeeAsset:      usdt,
		FeeAmount:     feeAmount,
		OrderLifetime: lifetime,
		SweepGrace:    grace,
		Clock:         func() time.Time { return r.now },
		Logger:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	r.eng = eng
	return r
}

func (r *rig) advance(d time.Duration) {
	r.now = r.now.Add(d)
}

func (r *rig) balance(id asset.ID, holder uuid.UUID) int64 {
	r.t.Helper()
	got, err := r.bank.BalanceOf(id, holder)
	if err != nil {
		r.t.Fatalf("balance lookup failed: %v", err)
	}
	return got
}

func (r *rig) mustCreate(maker, counterparty uuid.UUID, sellAsset asset.ID, sellAmount int64, buyAsset asset.ID, buyAmount int64) uint64 {
	r.t.Helper()
	id, err := r.eng.Create(maker, counterparty, sellAsset, sellAmount, buyAsset, buyAmount)
	if err != nil {
		r.t.Fatalf("create failed: %v", err)
	}
	return id
}

// checkConservation verifies the custodian's holdings cover everything the
// engine owes: live escrow, claimable balances, and fee liability.
func (r *rig) checkConservation(principals []uuid.UUID, assets []asset.ID) {
	r.t.Helper()

	for _, id := range assets {
		owed := r.eng.FeeLiability(id)
		for _, p := range principals {
			owed += r.eng.Claimable(p, id)
		}
		for seq := r.eng.Cursor(); seq < r.eng.NextSequence(); seq++ {
			if o, ok := r.eng.Order(seq); ok && o.Status == engine.StatusActive && o.SellAsset == id {
				owed += o.SellAmount
			}
		}
		if held := r.balance(id, r.custodian); held != owed {
			r.t.Fatalf("conservation broken for %s: custodian holds %d, engine owes %d", id, held, owed)
		}
	}
}
