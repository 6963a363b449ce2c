package engine

import "errors"

// Validation errors: malformed input, rejected before any state mutation.
var (
	ErrZeroPrincipal   = errors.New("engine: zero principal")
	ErrInvalidAsset    = errors.New("engine: zero asset id")
	ErrInvalidAmount   = errors.New("engine: amount must be positive")
	ErrSameAsset       = errors.New("engine: sell and buy asset must differ")
	ErrAssetNotAllowed = errors.New("engine: asset not on allowlist")
	ErrInvalidLimit    = errors.New("engine: batch cap must be positive")
)

// Authorization errors: wrong caller, no state change.
var (
	ErrNotOwner          = errors.New("engine: caller is not the owner")
	ErrNotMaker          = errors.New("engine: caller is not the maker")
	ErrWrongCounterparty = errors.New("engine: order is restricted to another counterparty")
)

// State errors: operating on a nonexistent, terminal, or expired order.
var (
	ErrCreationPaused = errors.New("engine: new order creation is paused")
	ErrOrderNotFound  = errors.New("engine: order not found")
	ErrOrderNotActive = errors.New("engine: order is not active")
	ErrOrderExpired   = errors.New("engine: order expired")
	ErrQueueEmpty     = errors.New("engine: nothing to sweep")
	ErrSweepNotDue    = errors.New("engine: head order not yet eligible for cleanup")
)

// External-effect errors: the transfer capability failed or under-delivered.
// The triggering call is aborted and its state changes undone.
var (
	ErrNothingReceived = errors.New("engine: transfer delivered nothing")
	ErrShortDelivery   = errors.New("engine: transfer delivered less than required")
)

// ErrReentrantCall is returned when a mutating operation is invoked while
// another one is still in flight, including callbacks from the transfer
// capability into the engine.
var ErrReentrantCall = errors.New("engine: reentrant call rejected")
