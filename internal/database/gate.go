package database

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/koustreak/playerdb/internal/errs"
)

// gate bounds the number of statements holding a pooled connection.
//
// database/sql queues callers without limit once MaxOpenConns is reached, so
// admission is decided here first: a slot per connection, a FIFO wait queue
// (semaphore.Weighted serves waiters in order) and an optional cap on the
// number of queued callers.
type gate struct {
	sem        *semaphore.Weighted
	wait       bool
	queueLimit int64

	inUse   atomic.Int64
	waiting atomic.Int64
}

func newGate(size int, wait bool, queueLimit int) *gate {
	return &gate{
		sem:        semaphore.NewWeighted(int64(size)),
		wait:       wait,
		queueLimit: int64(queueLimit),
	}
}

// acquire takes one slot, queueing if allowed. Every successful acquire must
// be paired with exactly one release.
func (g *gate) acquire(ctx context.Context) error {
	if g.sem.TryAcquire(1) {
		g.inUse.Add(1)
		return nil
	}
	if !g.wait {
		return errs.New(errs.ErrKindPoolExhausted, "all pooled connections are in use")
	}

	n := g.waiting.Add(1)
	defer g.waiting.Add(-1)
	if g.queueLimit > 0 && n > g.queueLimit {
		return errs.New(errs.ErrKindPoolExhausted,
			fmt.Sprintf("connection queue limit of %d reached", g.queueLimit))
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "gave up waiting for a pooled connection", err)
	}
	g.inUse.Add(1)
	return nil
}

func (g *gate) release() {
	g.inUse.Add(-1)
	g.sem.Release(1)
}
