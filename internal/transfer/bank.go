package transfer

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"EscrowDesk/internal/asset"
)

type bankKey struct {
	asset  asset.ID
	holder uuid.UUID
}

// Bank is an in-memory, well-behaved Capability. The daemon uses it as the
// simulation backend; tests wrap it with misbehaving doubles.
type Bank struct {
	mu       sync.Mutex
	balances map[bankKey]int64
}

func NewBank() *Bank {
	return &Bank{balances: make(map[bankKey]int64)}
}

// Mint credits a holder out of thin air. Test and bootstrap helper.
func (b *Bank) Mint(id asset.ID, holder uuid.UUID, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[bankKey{id, holder}] += amount
}

func (b *Bank) BalanceOf(id asset.ID, holder uuid.UUID) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[bankKey{id, holder}], nil
}

func (b *Bank) Transfer(id asset.ID, from, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("bank: non-positive transfer amount %d", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := bankKey{id, from}
	if b.balances[fromKey] < amount {
		return fmt.Errorf("bank: insufficient funds: asset=%s have=%d want=%d",
			id, b.balances[fromKey], amount)
	}

	b.balances[fromKey] -= amount
	b.balances[bankKey{id, to}] += amount
	return nil
}
