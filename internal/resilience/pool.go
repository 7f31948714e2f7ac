package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrPoolBusy is returned by TryAcquire when every slot is taken.
var ErrPoolBusy = errors.New("run pool is busy")

// Pool bounds how many planning runs execute at once. Every run spawns one
// solver process per requested solver, so server and worker modes admit
// requests through a shared Pool.
type Pool struct {
	sem      *semaphore.Weighted
	limit    int
	inFlight atomic.Int64
}

// NewPool creates a Pool that allows at most limit concurrent runs.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit)), limit: limit}
}

// Run acquires a slot, runs fn, and releases the slot.
// Blocks while all slots are busy and returns ctx.Err() if ctx ends first.
// A nil Pool runs fn directly.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	return p.run(fn)
}

// TryAcquire takes a slot only if one is free right now, otherwise it
// returns ErrPoolBusy. The caller must call release exactly once. A nil
// Pool always succeeds.
func (p *Pool) TryAcquire() (release func(), err error) {
	if p == nil || p.sem == nil {
		return func() {}, nil
	}
	if !p.sem.TryAcquire(1) {
		return nil, ErrPoolBusy
	}
	p.inFlight.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			p.sem.Release(1)
			p.inFlight.Add(-1)
		})
	}, nil
}

func (p *Pool) run(fn func() error) error {
	p.inFlight.Add(1)
	defer func() {
		p.sem.Release(1)
		p.inFlight.Add(-1)
	}()
	return fn()
}

// InFlight returns the number of runs currently holding a slot.
func (p *Pool) InFlight() int {
	if p == nil {
		return 0
	}
	return int(p.inFlight.Load())
}

// Limit returns the configured concurrency limit.
func (p *Pool) Limit() int {
	if p == nil {
		return 0
	}
	return p.limit
}
