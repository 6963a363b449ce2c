package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
)

var (
	ErrZeroPrincipal = errors.New("ledger: zero principal")
	ErrZeroAsset     = errors.New("ledger: zero asset id")
	ErrBadAmount     = errors.New("ledger: amount must be positive")
	ErrInsufficient  = errors.New("ledger: insufficient claimable balance")
)

// Reason tags a ledger credit for downstream consumers.
type Reason uint8

const (
	ReasonUnknown Reason = iota
	ReasonCancel
	ReasonExpiredEscrow
	ReasonSweepReward
	ReasonReversal
)

func (r Reason) String() string {
	switch r {
	case ReasonCancel:
		return "cancel"
	case ReasonExpiredEscrow:
		return "expired_escrow"
	case ReasonSweepReward:
		return "sweep_reward"
	case ReasonReversal:
		return "reversal"
	default:
		return "unknown"
	}
}

type claimKey struct {
	principal uuid.UUID
	asset     asset.ID
}

// Claimable tracks value owed to principals, settled later via explicit
// withdrawal. Per principal it keeps a swap-and-pop enumerable list of the
// assets with a nonzero owed amount: the list contains an asset iff the owed
// amount for that asset is nonzero, with no duplicates.
type Claimable struct {
	owed  map[claimKey]int64
	lists map[uuid.UUID][]asset.ID
	index map[claimKey]int
}

func NewClaimable() *Claimable {
	return &Claimable{
		owed:  make(map[claimKey]int64),
		lists: make(map[uuid.UUID][]asset.ID),
		index: make(map[claimKey]int),
	}
}

// Credit adds to the amount owed. A zero amount is a no-op. Credits are
// monotonic: the owed amount is always incremented, never overwritten.
func (c *Claimable) Credit(principal uuid.UUID, id asset.ID, amount int64, reason Reason) error {
	if amount == 0 {
		return nil
	}
	if amount < 0 {
		return fmt.Errorf("%w: %d (%s)", ErrBadAmount, amount, reason)
	}
	if principal == uuid.Nil {
		return ErrZeroPrincipal
	}
	if !id.Valid() {
		return ErrZeroAsset
	}

	key := claimKey{principal, id}
	if c.owed[key] == 0 {
		c.index[key] = len(c.lists[principal])
		c.lists[principal] = append(c.lists[principal], id)
	}
	c.owed[key] += amount

	return nil
}

// Owed returns the claimable amount for a (principal, asset) pair.
func (c *Claimable) Owed(principal uuid.UUID, id asset.ID) int64 {
	return c.owed[claimKey{principal, id}]
}

// Assets returns a copy of the principal's enumerable claimable-asset list.
// Independent of the trading allowlist: an asset removed from trading
// eligibility remains withdrawable.
func (c *Claimable) Assets(principal uuid.UUID) []asset.ID {
	list := c.lists[principal]
	out := make([]asset.ID, len(list))
	copy(out, list)
	return out
}

// Entries returns the number of nonzero (principal, asset) entries.
func (c *Claimable) Entries() int {
	return len(c.owed)
}

// Debit removes amount from the owed balance. Requires 0 < amount <= owed.
// When the remaining balance reaches zero the asset is dropped from the
// principal's enumerable list.
func (c *Claimable) Debit(principal uuid.UUID, id asset.ID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrBadAmount, amount)
	}

	key := claimKey{principal, id}
	owed := c.owed[key]
	if amount > owed {
		return fmt.Errorf("%w: have=%d, want=%d", ErrInsufficient, owed, amount)
	}

	remaining := owed - amount
	if remaining == 0 {
		delete(c.owed, key)
		c.dropFromList(principal, id)
	} else {
		c.owed[key] = remaining
	}

	return nil
}

// DropZero removes a stale zero-balance list entry, reporting whether the
// entry was removed. Entries with a nonzero balance are left alone.
func (c *Claimable) DropZero(principal uuid.UUID, id asset.ID) bool {
	key := claimKey{principal, id}
	if c.owed[key] != 0 {
		return false
	}
	if _, ok := c.index[key]; !ok {
		return false
	}
	c.dropFromList(principal, id)
	return true
}

func (c *Claimable) dropFromList(principal uuid.UUID, id asset.ID) {
	key := claimKey{principal, id}
	pos, ok := c.index[key]
	if !ok {
		return
	}

	list := c.lists[principal]
	last := len(list) - 1
	moved := list[last]
	list[pos] = moved
	c.index[claimKey{principal, moved}] = pos
	c.lists[principal] = list[:last]
	delete(c.index, key)

	if last == 0 {
		delete(c.lists, principal)
	}
}
