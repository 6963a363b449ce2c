package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"EscrowDesk/internal/asset"
	"EscrowDesk/internal/event"
	"EscrowDesk/internal/ledger"
	"EscrowDesk/internal/observability"
	"EscrowDesk/internal/transfer"
)

// Engine is the escrow-based order-matching and settlement core. It is the
// sole mutator of the order store, allowlist, fee buckets, and claimable
// ledger; principals only trigger transitions through its operations.
//
// Every mutating operation holds the reentrancy guard for its duration.
// Overlapping mutations of any kind are refused with ErrReentrantCall: the
// expected deployment drives mutations from a single loop, and a transfer
// capability calling back into the engine must never observe a half-applied
// transition. Reads take the state lock only and may run concurrently.
type Engine struct {
	guard guard
	mu    sync.RWMutex

	owner     uuid.UUID
	custodian uuid.UUID
	bank      transfer.Capability
	clock     func() time.Time

	allow  *asset.Registry
	claims *ledger.Claimable
	fees   *ledger.FeePool

	orders  map[uint64]*Order
	nextSeq uint64 // next sequence number to assign
	cursor  uint64 // first live sequence number (cleanup cursor)

	paused    bool
	feeAsset  asset.ID
	feeAmount int64

	lifetime time.Duration // fill deadline after creation
	grace    time.Duration // extra slack before cleanup eligibility

	emitSeq     uint64
	persistChan chan<- event.Envelope // blocking send, nil to disable
	publishChan chan<- event.Envelope // non-blocking send, drop on full

	log     zerolog.Logger
	metrics *observability.Metrics
}

// Config assembles an Engine. Transfer, Owner, Custodian, Allowlist and the
// fee configuration are mandatory; the rest has defaults.
type Config struct {
	Owner     uuid.UUID
	Custodian uuid.UUID // the engine's own custody account at the capability
	Transfer  transfer.Capability

	Allowlist []asset.ID

	FeeAsset  asset.ID
	FeeAmount int64

	OrderLifetime time.Duration // default 24h
	SweepGrace    time.Duration // default 24h

	Clock   func() time.Time
	Logger  zerolog.Logger
	Metrics *observability.Metrics

	PersistChan chan<- event.Envelope
	PublishChan chan<- event.Envelope
}

const (
	defaultOrderLifetime = 24 * time.Hour
	defaultSweepGrace    = 24 * time.Hour
)

func New(cfg Config) (*Engine, error) {
	if cfg.Transfer == nil {
		return nil, errors.New("engine: transfer capability is required")
	}
	if cfg.Owner == uuid.Nil || cfg.Custodian == uuid.Nil {
		return nil, ErrZeroPrincipal
	}
	if !cfg.FeeAsset.Valid() {
		return nil, ErrInvalidAsset
	}
	if cfg.FeeAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	allow, err := asset.NewRegistry(cfg.Allowlist)
	if err != nil {
		return nil, err
	}

	if cfg.OrderLifetime <= 0 {
		cfg.OrderLifetime = defaultOrderLifetime
	}
	if cfg.SweepGrace <= 0 {
		cfg.SweepGrace = defaultSweepGrace
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Engine{
		owner:       cfg.Owner,
		custodian:   cfg.Custodian,
		bank:        cfg.Transfer,
		clock:       cfg.Clock,
		allow:       allow,
		claims:      ledger.NewClaimable(),
		fees:        ledger.NewFeePool(),
		orders:      make(map[uint64]*Order),
		nextSeq:     1,
		cursor:      1,
		feeAsset:    cfg.FeeAsset,
		feeAmount:   cfg.FeeAmount,
		lifetime:    cfg.OrderLifetime,
		grace:       cfg.SweepGrace,
		persistChan: cfg.PersistChan,
		publishChan: cfg.PublishChan,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
	}, nil
}

// emit wraps a payload in an envelope and hands it to the outbound channels.
// The persist channel blocks (no notification is ever lost); the publish
// channel drops on full, since consumers can rebuild from the event log.
func (e *Engine) emit(payload event.Event) {
	e.emitSeq++
	env := event.Envelope{
		Sequence:  e.emitSeq,
		Type:      payload.EventType(),
		Timestamp: e.clock(),
		Payload:   payload,
	}

	if e.metrics != nil {
		e.metrics.EventsEmitted.WithLabelValues(env.Type.String()).Inc()
	}

	if e.persistChan != nil {
		e.persistChan <- env
	}

	if e.publishChan != nil {
		select {
		case e.publishChan <- env:
		default:
			if e.metrics != nil {
				e.metrics.EventsDropped.Inc()
			}
		}
	}
}

func (e *Engine) reject(op, reason string) {
	if e.metrics != nil {
		e.metrics.OpsRejected.WithLabelValues(op, reason).Inc()
	}
}

// --- Read surface ---

// Order returns a copy of the order at the given sequence number.
func (e *Engine) Order(id uint64) (Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	o, ok := e.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// IsAllowed reports whether an asset is eligible for trading.
func (e *Engine) IsAllowed(id asset.ID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.allow.Contains(id)
}

// Allowlist returns the enumerable list of tradable assets.
func (e *Engine) Allowlist() []asset.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.allow.List()
}

// Claimable returns the amount owed to a principal in an asset.
func (e *Engine) Claimable(principal uuid.UUID, id asset.ID) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.claims.Owed(principal, id)
}

// ClaimableAssets returns the assets a principal can withdraw.
func (e *Engine) ClaimableAssets(principal uuid.UUID) []asset.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.claims.Assets(principal)
}

// FeeLiability returns the accumulated cleanup-reward liability for an asset.
func (e *Engine) FeeLiability(id asset.ID) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fees.Liability(id)
}

// Cursor returns the first live sequence number. Together with NextSequence
// it lets off-engine consumers reconstruct the live order window.
func (e *Engine) Cursor() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// NextSequence returns the next order sequence number to be assigned.
func (e *Engine) NextSequence() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextSeq
}

// FeeConfig returns the current global fee asset and amount. Orders snapshot
// these at creation.
func (e *Engine) FeeConfig() (asset.ID, int64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.feeAsset, e.feeAmount
}

// Paused reports whether new order creation is disabled.
func (e *Engine) Paused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}
