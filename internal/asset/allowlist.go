package asset

import (
	"errors"
	"fmt"
)

// MaxBatch bounds a single add/remove batch on the registry.
const MaxBatch = 64

var (
	ErrEmptyAllowlist = errors.New("allowlist: initial asset set must not be empty")
	ErrZeroAsset      = errors.New("allowlist: zero asset id")
	ErrBatchTooLarge  = fmt.Errorf("allowlist: batch exceeds %d ids", MaxBatch)
	ErrEmptyBatch     = errors.New("allowlist: empty batch")
)

// Registry is the set of assets eligible for trading. Membership is O(1)
// and the enumerable list stays compact via swap-and-pop removal, so the
// list order is implementation-defined but stable between mutations.
type Registry struct {
	list  []ID
	index map[ID]int
}

// NewRegistry builds a registry from the initial asset set. An empty set is
// rejected; duplicates are silently de-duplicated; zero ids are rejected.
func NewRegistry(initial []ID) (*Registry, error) {
	if len(initial) == 0 {
		return nil, ErrEmptyAllowlist
	}

	r := &Registry{
		list:  make([]ID, 0, len(initial)),
		index: make(map[ID]int, len(initial)),
	}

	for _, id := range initial {
		if !id.Valid() {
			return nil, ErrZeroAsset
		}
		if _, dup := r.index[id]; dup {
			continue
		}
		r.index[id] = len(r.list)
		r.list = append(r.list, id)
	}

	return r, nil
}

// Contains reports membership.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.index[id]
	return ok
}

// List returns a copy of the enumerable asset list.
func (r *Registry) List() []ID {
	out := make([]ID, len(r.list))
	copy(out, r.list)
	return out
}

// Len returns the number of allowed assets.
func (r *Registry) Len() int {
	return len(r.list)
}

// Add inserts a batch of assets. Already-present ids are no-ops.
func (r *Registry) Add(batch []ID) error {
	if err := checkBatch(batch); err != nil {
		return err
	}

	for _, id := range batch {
		if _, ok := r.index[id]; ok {
			continue
		}
		r.index[id] = len(r.list)
		r.list = append(r.list, id)
	}

	return nil
}

// Remove deletes a batch of assets. Absent ids are no-ops. Each removal
// relocates the last element into the freed slot and fixes its index record,
// keeping the list compact in O(1) per id.
func (r *Registry) Remove(batch []ID) error {
	if err := checkBatch(batch); err != nil {
		return err
	}

	for _, id := range batch {
		pos, ok := r.index[id]
		if !ok {
			continue
		}

		last := len(r.list) - 1
		moved := r.list[last]
		r.list[pos] = moved
		r.index[moved] = pos
		r.list = r.list[:last]
		delete(r.index, id)
	}

	return nil
}

func checkBatch(batch []ID) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}
	if len(batch) > MaxBatch {
		return ErrBatchTooLarge
	}
	for _, id := range batch {
		if !id.Valid() {
			return ErrZeroAsset
		}
	}
	return nil
}
