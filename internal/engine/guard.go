package engine

import "sync/atomic"

// guard is the scoped exclusive-access token held for the duration of every
// externally-effectful operation. The transfer capability runs inside that
// scope and may call back into the engine; the token makes any such reentry
// fail fast instead of observing a half-finished transition.
type guard struct {
	busy atomic.Bool
}

func (g *guard) enter() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (g *guard) exit() {
	g.busy.Store(false)
}
