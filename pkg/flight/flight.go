// Package flight provides a keyed cache that coalesces concurrent computations of the same
// key and keeps successful results until they expire.
package flight

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type Cache[K comparable, V any] struct {
	finished map[K]*entry[V]
	fmu      *sync.RWMutex

	pending map[K]*job[V]
	pmu     *sync.Mutex

	work func(context.Context, K) (V, error)

	// ttl stores the expiry in nanoseconds. <= 0 means results never expire.
	ttl *atomic.Int64

	now func() time.Time
}

type entry[V any] struct {
	val      V
	deadline time.Time // zero => never expires
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](work func(context.Context, K) (V, error)) *Cache[K, V] {
	var ttl atomic.Int64
	ttl.Store(int64(time.Hour))
	return &Cache[K, V]{
		finished: make(map[K]*entry[V]),
		fmu:      new(sync.RWMutex),
		pending:  make(map[K]*job[V]),
		pmu:      new(sync.Mutex),
		work:     work,
		ttl:      &ttl,
		now:      time.Now,
	}
}

// Expiry sets how long future results stay cached.
// d <= 0 keeps them forever.
func (p *Cache[K, V]) Expiry(d time.Duration) {
	if d <= 0 {
		p.ttl.Store(0)
		return
	}
	p.ttl.Store(int64(d))
}

// Get returns the cached value for k, joining an in-flight computation if one exists.
// Errors are returned to every waiter but never cached. The computation itself runs
// detached from ctx, so one cancelled caller does not fail the others; ctx only bounds
// how long this caller waits.
func (p *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	p.pmu.Lock()

	if v, ok := p.load(k); ok {
		p.pmu.Unlock()
		return v, nil
	}

	j, ok := p.pending[k]
	if !ok {
		j = &job[V]{done: make(chan struct{})}
		p.pending[k] = j
		go p.run(context.WithoutCancel(ctx), k, j)
	}
	p.pmu.Unlock()

	select {
	case <-j.done:
		return j.val, j.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// --- internals ---

func (p *Cache[K, V]) run(ctx context.Context, k K, j *job[V]) {
	j.val, j.err = p.work(ctx, k)
	if j.err == nil {
		p.store(k, j.val)
	}

	p.pmu.Lock()
	close(j.done)
	delete(p.pending, k)
	p.pmu.Unlock()
}

func (p *Cache[K, V]) load(k K) (V, bool) {
	p.fmu.RLock()
	e, ok := p.finished[k]
	p.fmu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if !e.deadline.IsZero() && p.now().After(e.deadline) {
		p.fmu.Lock()
		// Re-check under write lock to avoid racing a fresh store.
		if cur, ok := p.finished[k]; ok && cur == e {
			delete(p.finished, k)
		}
		p.fmu.Unlock()
		var zero V
		return zero, false
	}
	return e.val, true
}

func (p *Cache[K, V]) store(k K, val V) {
	e := &entry[V]{val: val}
	if d := time.Duration(p.ttl.Load()); d > 0 {
		e.deadline = p.now().Add(d)
	}

	p.fmu.Lock()
	p.finished[k] = e
	p.fmu.Unlock()
}
