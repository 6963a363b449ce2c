package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
	"EscrowDesk/internal/engine"
	"EscrowDesk/internal/ledger"
)

func TestCreate(t *testing.T) {
	r := newRig(t)

	id := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 200)
	if id != 1 {
		t.Fatalf("first order id = %d, want 1", id)
	}

	o, ok := r.eng.Order(id)
	if !ok {
		t.Fatal("order not stored")
	}
	if o.Status != engine.StatusActive {
		t.Fatalf("status = %s, want active", o.Status)
	}
	if o.SellAmount != 100 || o.BuyAmount != 200 {
		t.Fatalf("amounts = %d/%d, want 100/200", o.SellAmount, o.BuyAmount)
	}
	if o.FeeAsset != usdt || o.FeeAmount != feeAmount {
		t.Fatalf("fee snapshot = %s/%d, want %s/%d", o.FeeAsset, o.FeeAmount, usdt, feeAmount)
	}

	// Escrow and fee sit with the custodian, the fee as booked liability.
	if got := r.balance(btc, r.alice); got != 10_000-100 {
		t.Fatalf("alice btc = %d, want %d", got, 10_000-100)
	}
	if got := r.balance(usdt, r.alice); got != 10_000-feeAmount {
		t.Fatalf("alice usdt = %d, want %d", got, 10_000-feeAmount)
	}
	if got := r.balance(btc, r.custodian); got != 100 {
		t.Fatalf("custodian btc = %d, want 100", got)
	}
	if got := r.eng.FeeLiability(usdt); got != feeAmount {
		t.Fatalf("fee liability = %d, want %d", got, feeAmount)
	}

	if got := r.eng.NextSequence(); got != 2 {
		t.Fatalf("next sequence = %d, want 2", got)
	}
	if got := r.eng.Cursor(); got != 1 {
		t.Fatalf("cursor = %d, want 1", got)
	}

	// Sequence numbers are strictly increasing, never reused.
	if id2 := r.mustCreate(r.bob, uuid.Nil, eth, 50, btc, 5); id2 != 2 {
		t.Fatalf("second order id = %d, want 2", id2)
	}
}

func TestCreateValidation(t *testing.T) {
	r := newRig(t)

	check := func(name string, want error, err error) {
		t.Helper()
		if !errors.Is(err, want) {
			t.Fatalf("%s: got %v, want %v", name, err, want)
		}
	}

	_, err := r.eng.Create(uuid.Nil, uuid.Nil, btc, 100, eth, 200)
	check("zero maker", engine.ErrZeroPrincipal, err)

	_, err = r.eng.Create(r.alice, uuid.Nil, "", 100, eth, 200)
	check("zero sell asset", engine.ErrInvalidAsset, err)

	_, err = r.eng.Create(r.alice, uuid.Nil, btc, 100, "", 200)
	check("zero buy asset", engine.ErrInvalidAsset, err)

	_, err = r.eng.Create(r.alice, uuid.Nil, btc, 100, btc, 200)
	check("same asset", engine.ErrSameAsset, err)

	_, err = r.eng.Create(r.alice, uuid.Nil, btc, 0, eth, 200)
	check("zero sell amount", engine.ErrInvalidAmount, err)

	_, err = r.eng.Create(r.alice, uuid.Nil, btc, 100, eth, -1)
	check("negative buy amount", engine.ErrInvalidAmount, err)

	_, err = r.eng.Create(r.alice, uuid.Nil, doge, 100, eth, 200)
	check("sell asset not allowed", engine.ErrAssetNotAllowed, err)

	_, err = r.eng.Create(r.alice, uuid.Nil, btc, 100, doge, 200)
	check("buy asset not allowed", engine.ErrAssetNotAllowed, err)

	// Nothing was escrowed by any of the rejected calls.
	if got := r.balance(btc, r.custodian); got != 0 {
		t.Fatalf("custodian btc = %d after rejections, want 0", got)
	}
	if got := r.eng.NextSequence(); got != 1 {
		t.Fatalf("next sequence = %d after rejections, want 1", got)
	}
}

func TestCreateInsufficientFunds(t *testing.T) {
	r := newRig(t)

	// carol holds nothing: the fee pull fails and the call leaves no trace.
	if _, err := r.eng.Create(r.carol, uuid.Nil, btc, 100, eth, 200); err == nil {
		t.Fatal("expected fee pull to fail")
	}
	if got := r.eng.FeeLiability(usdt); got != 0 {
		t.Fatalf("fee liability = %d after failed create, want 0", got)
	}

	// Fee covered but escrow is not: the received fee is refunded.
	r.bank.Mint(usdt, r.carol, feeAmount)
	if _, err := r.eng.Create(r.carol, uuid.Nil, btc, 100, eth, 200); err == nil {
		t.Fatal("expected escrow pull to fail")
	}
	if got := r.balance(usdt, r.carol); got != feeAmount {
		t.Fatalf("carol usdt = %d after refund, want %d", got, feeAmount)
	}
	if got := r.balance(usdt, r.custodian); got != 0 {
		t.Fatalf("custodian usdt = %d after refund, want 0", got)
	}
	if got := r.eng.NextSequence(); got != 1 {
		t.Fatalf("next sequence = %d, want 1", got)
	}
}

func TestFill(t *testing.T) {
	r := newRig(t)
	id := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 200)

	if err := r.eng.Fill(id, r.bob); err != nil {
		t.Fatalf("fill failed: %v", err)
	}

	o, _ := r.eng.Order(id)
	if o.Status != engine.StatusFilled {
		t.Fatalf("status = %s, want filled", o.Status)
	}
	if o.Taker != r.bob {
		t.Fatal("taker not recorded")
	}

	// Bob paid the buy amount and received the escrow; alice got paid.
	if got := r.balance(eth, r.bob); got != 10_000-200 {
		t.Fatalf("bob eth = %d, want %d", got, 10_000-200)
	}
	if got := r.balance(btc, r.bob); got != 10_000+100 {
		t.Fatalf("bob btc = %d, want %d", got, 10_000+100)
	}
	if got := r.balance(eth, r.alice); got != 10_000+200 {
		t.Fatalf("alice eth = %d, want %d", got, 10_000+200)
	}

	// The fee stays booked for the eventual cleanup caller.
	if got := r.eng.FeeLiability(usdt); got != feeAmount {
		t.Fatalf("fee liability = %d, want %d", got, feeAmount)
	}

	// A filled order is terminal.
	if err := r.eng.Fill(id, r.carol); !errors.Is(err, engine.ErrOrderNotActive) {
		t.Fatalf("refill: got %v, want ErrOrderNotActive", err)
	}
	if err := r.eng.Cancel(id, r.alice); !errors.Is(err, engine.ErrOrderNotActive) {
		t.Fatalf("cancel after fill: got %v, want ErrOrderNotActive", err)
	}

	r.checkConservation([]uuid.UUID{r.alice, r.bob}, []asset.ID{btc, eth, usdt})
}

func TestFillRestrictedCounterparty(t *testing.T) {
	r := newRig(t)
	id := r.mustCreate(r.alice, r.carol, btc, 100, eth, 200)

	if err := r.eng.Fill(id, r.bob); !errors.Is(err, engine.ErrWrongCounterparty) {
		t.Fatalf("got %v, want ErrWrongCounterparty", err)
	}

	r.bank.Mint(eth, r.carol, 200)
	if err := r.eng.Fill(id, r.carol); err != nil {
		t.Fatalf("designated counterparty fill failed: %v", err)
	}
}

func TestFillExpired(t *testing.T) {
	r := newRig(t)
	id := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 200)

	r.advance(lifetime + time.Second)

	if err := r.eng.Fill(id, r.bob); !errors.Is(err, engine.ErrOrderExpired) {
		t.Fatalf("got %v, want ErrOrderExpired", err)
	}
	if o, _ := r.eng.Order(id); o.Status != engine.StatusActive {
		t.Fatal("expired order must stay active until swept or canceled")
	}
}

func TestFillMissingOrder(t *testing.T) {
	r := newRig(t)
	if err := r.eng.Fill(42, r.bob); !errors.Is(err, engine.ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
	if err := r.eng.Fill(1, uuid.Nil); !errors.Is(err, engine.ErrZeroPrincipal) {
		t.Fatalf("got %v, want ErrZeroPrincipal", err)
	}
}

func TestCancel(t *testing.T) {
	r := newRig(t)
	id := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 200)

	if err := r.eng.Cancel(id, r.bob); !errors.Is(err, engine.ErrNotMaker) {
		t.Fatalf("got %v, want ErrNotMaker", err)
	}

	custodianBefore := r.balance(btc, r.custodian)

	if err := r.eng.Cancel(id, r.alice); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// The escrow becomes a ledger credit, never an inline transfer.
	if got := r.balance(btc, r.custodian); got != custodianBefore {
		t.Fatal("cancel must not move funds out of custody")
	}
	if got := r.eng.Claimable(r.alice, btc); got != 100 {
		t.Fatalf("claimable = %d, want 100", got)
	}
	assets := r.eng.ClaimableAssets(r.alice)
	if len(assets) != 1 || assets[0] != btc {
		t.Fatalf("claimable assets = %v, want [BTC]", assets)
	}

	// Cancel has no deadline but is not repeatable.
	if err := r.eng.Cancel(id, r.alice); !errors.Is(err, engine.ErrOrderNotActive) {
		t.Fatalf("recancel: got %v, want ErrOrderNotActive", err)
	}
	if o, _ := r.eng.Order(id); o.Status != engine.StatusCanceled {
		t.Fatal("order must remain canceled")
	}
}

func TestCancelHasNoDeadline(t *testing.T) {
	r := newRig(t)
	id := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 200)

	// Long past expiry and cleanup eligibility the maker can still recover.
	r.advance(30 * 24 * time.Hour)

	if err := r.eng.Cancel(id, r.alice); err != nil {
		t.Fatalf("late cancel failed: %v", err)
	}
	if got := r.eng.Claimable(r.alice, btc); got != 100 {
		t.Fatalf("claimable = %d, want 100", got)
	}
}

func TestWithdraw(t *testing.T) {
	r := newRig(t)
	id := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 200)
	if err := r.eng.Cancel(id, r.alice); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if err := r.eng.Withdraw(r.alice, btc, 40); err != nil {
		t.Fatalf("partial withdraw failed: %v", err)
	}
	if got := r.eng.Claimable(r.alice, btc); got != 60 {
		t.Fatalf("claimable = %d, want 60", got)
	}
	if got := r.balance(btc, r.alice); got != 10_000-100+40 {
		t.Fatalf("alice btc = %d, want %d", got, 10_000-100+40)
	}
	if got := len(r.eng.ClaimableAssets(r.alice)); got != 1 {
		t.Fatal("partially drained asset must stay listed")
	}

	if err := r.eng.Withdraw(r.alice, btc, 60); err != nil {
		t.Fatalf("final withdraw failed: %v", err)
	}
	if got := r.eng.Claimable(r.alice, btc); got != 0 {
		t.Fatalf("claimable = %d, want 0", got)
	}
	if got := len(r.eng.ClaimableAssets(r.alice)); got != 0 {
		t.Fatal("drained asset must leave the list")
	}

	if err := r.eng.Withdraw(r.alice, btc, 1); !errors.Is(err, ledger.ErrInsufficient) {
		t.Fatalf("overdraw: got %v, want ErrInsufficient", err)
	}
	if err := r.eng.Withdraw(r.alice, btc, 0); !errors.Is(err, ledger.ErrBadAmount) {
		t.Fatalf("zero amount: got %v, want ErrBadAmount", err)
	}
	if err := r.eng.Withdraw(uuid.Nil, btc, 1); !errors.Is(err, engine.ErrZeroPrincipal) {
		t.Fatalf("zero caller: got %v, want ErrZeroPrincipal", err)
	}
	if err := r.eng.Withdraw(r.alice, "", 1); !errors.Is(err, engine.ErrInvalidAsset) {
		t.Fatalf("zero asset: got %v, want ErrInvalidAsset", err)
	}
}

func TestWithdrawAll(t *testing.T) {
	r := newRig(t)

	// Three canceled orders leave claimables in three assets.
	id1 := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 1)
	id2 := r.mustCreate(r.alice, uuid.Nil, eth, 200, btc, 1)
	id3 := r.mustCreate(r.alice, uuid.Nil, usdc, 300, btc, 1)
	for _, id := range []uint64{id1, id2, id3} {
		if err := r.eng.Cancel(id, r.alice); err != nil {
			t.Fatalf("cancel %d failed: %v", id, err)
		}
	}

	if _, err := r.eng.WithdrawAll(r.alice, 0); !errors.Is(err, engine.ErrInvalidLimit) {
		t.Fatalf("zero cap: got %v, want ErrInvalidLimit", err)
	}
	if _, err := r.eng.WithdrawAll(uuid.Nil, 1); !errors.Is(err, engine.ErrZeroPrincipal) {
		t.Fatalf("zero caller: got %v, want ErrZeroPrincipal", err)
	}

	drained, err := r.eng.WithdrawAll(r.alice, 2)
	if err != nil {
		t.Fatalf("withdraw all failed: %v", err)
	}
	if len(drained) != 2 {
		t.Fatalf("drained %d assets, want 2", len(drained))
	}
	if got := len(r.eng.ClaimableAssets(r.alice)); got != 1 {
		t.Fatalf("remaining assets = %d, want 1", got)
	}

	drained, err = r.eng.WithdrawAll(r.alice, 10)
	if err != nil {
		t.Fatalf("withdraw all failed: %v", err)
	}
	if len(drained) != 1 {
		t.Fatalf("drained %d assets, want 1", len(drained))
	}

	// Everything came home: the only value left in custody is the fees.
	if got := r.balance(btc, r.alice); got != 10_000 {
		t.Fatalf("alice btc = %d, want 10000", got)
	}
	if got := r.balance(eth, r.alice); got != 10_000 {
		t.Fatalf("alice eth = %d, want 10000", got)
	}
	if got := r.balance(usdc, r.alice); got != 10_000 {
		t.Fatalf("alice usdc = %d, want 10000", got)
	}

	// An empty ledger drains nothing, without error.
	drained, err = r.eng.WithdrawAll(r.alice, 10)
	if err != nil {
		t.Fatalf("empty withdraw all failed: %v", err)
	}
	if len(drained) != 0 {
		t.Fatalf("drained %d assets from empty ledger, want 0", len(drained))
	}
}

func TestConservationAcrossLifecycle(t *testing.T) {
	r := newRig(t)
	principals := []uuid.UUID{r.alice, r.bob, r.carol}
	assets := []asset.ID{btc, eth, usdt, usdc}

	id1 := r.mustCreate(r.alice, uuid.Nil, btc, 100, eth, 200)
	r.mustCreate(r.bob, uuid.Nil, eth, 50, usdc, 75)
	r.checkConservation(principals, assets)

	if err := r.eng.Fill(id1, r.bob); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	r.checkConservation(principals, assets)

	id3 := r.mustCreate(r.alice, uuid.Nil, usdc, 40, btc, 4)
	if err := r.eng.Cancel(id3, r.alice); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	r.checkConservation(principals, assets)

	if err := r.eng.Withdraw(r.alice, usdc, 40); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	r.checkConservation(principals, assets)

	r.advance(lifetime + grace + time.Hour)
	for {
		if _, err := r.eng.Sweep(r.carol); err != nil {
			break
		}
	}
	r.checkConservation(principals, assets)
}
