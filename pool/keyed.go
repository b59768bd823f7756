// Package pool provides bounded keyed object pools for expensive, stateful
// executors such as compiled check artifacts.
//
// Instances are keyed by artifact identity and borrowed for exclusive use:
// a borrowed instance is never handed to two callers at once. Construction
// is the expensive step and is amortized by keeping returned instances idle
// for reuse.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrExhausted is returned by a non-blocking pool when no capacity is
// available for the requested key.
var ErrExhausted = errors.New("pool: exhausted")

// ErrClosed is returned when borrowing from a closed pool.
var ErrClosed = errors.New("pool: closed")

// Factory constructs and disposes pooled instances.
type Factory[T any] interface {
	// Make builds a new instance for the key. This is the expensive step.
	Make(ctx context.Context, key string) (T, error)

	// Destroy disposes an instance that will not be reused.
	Destroy(key string, instance T)
}

// Options configures a keyed pool.
type Options struct {
	// Block suspends Borrow until capacity frees; when false, Borrow
	// fails fast with ErrExhausted.
	Block bool

	// LIFO reuses the most recently returned idle instance first.
	LIFO bool

	// MaxTotal bounds concurrent borrows across all keys. Zero or
	// negative means 8.
	MaxTotal int

	// MaxPerKey bounds concurrent borrows per key. Zero or negative
	// means MaxTotal.
	MaxPerKey int
}

// Keyed is a bounded pool of per-key instances.
type Keyed[T any] struct {
	factory Factory[T]
	options Options
	total   *semaphore.Weighted

	mu     sync.Mutex
	keys   map[string]*keyEntry[T]
	closed bool
}

type keyEntry[T any] struct {
	slots *semaphore.Weighted
	idle  []T
}

// NewKeyed creates a pool constructing instances with the given factory.
func NewKeyed[T any](factory Factory[T], options Options) *Keyed[T] {
	if options.MaxTotal <= 0 {
		options.MaxTotal = 8
	}
	if options.MaxPerKey <= 0 {
		options.MaxPerKey = options.MaxTotal
	}
	return &Keyed[T]{
		factory: factory,
		options: options,
		total:   semaphore.NewWeighted(int64(options.MaxTotal)),
		keys:    make(map[string]*keyEntry[T]),
	}
}

// Borrow hands out an instance for exclusive use. The caller must pass it
// back through Return on every path. Blocking pools honor ctx cancellation
// while suspended.
func (p *Keyed[T]) Borrow(ctx context.Context, key string) (T, error) {
	var zero T

	entry, err := p.entry(key)
	if err != nil {
		return zero, err
	}

	// The per-key slot is taken before the total slot so a caller stuck
	// on a hot key does not hold global capacity.
	if err := p.acquire(ctx, entry.slots); err != nil {
		return zero, err
	}
	if err := p.acquire(ctx, p.total); err != nil {
		entry.slots.Release(1)
		return zero, err
	}

	if instance, ok := p.takeIdle(entry); ok {
		return instance, nil
	}

	instance, err := p.factory.Make(ctx, key)
	if err != nil {
		p.total.Release(1)
		entry.slots.Release(1)
		return zero, fmt.Errorf("pool: constructing instance for %q: %w", key, err)
	}
	return instance, nil
}

// Return passes a borrowed instance back. Instances returned to a closed
// pool are destroyed instead of kept idle.
func (p *Keyed[T]) Return(key string, instance T) {
	p.mu.Lock()
	entry, ok := p.keys[key]
	if !ok || p.closed {
		p.mu.Unlock()
		p.factory.Destroy(key, instance)
	} else {
		entry.idle = append(entry.idle, instance)
		p.mu.Unlock()
	}

	if ok {
		p.total.Release(1)
		entry.slots.Release(1)
	}
}

// Close destroys all idle instances and fails every later borrow with
// ErrClosed. Instances still borrowed are destroyed as they come back.
func (p *Keyed[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	entries := p.keys
	p.mu.Unlock()

	for key, entry := range entries {
		p.mu.Lock()
		idle := entry.idle
		entry.idle = nil
		p.mu.Unlock()

		for _, instance := range idle {
			p.factory.Destroy(key, instance)
		}
	}
}

func (p *Keyed[T]) entry(key string) (*keyEntry[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	entry, ok := p.keys[key]
	if !ok {
		entry = &keyEntry[T]{
			slots: semaphore.NewWeighted(int64(p.options.MaxPerKey)),
		}
		p.keys[key] = entry
	}
	return entry, nil
}

func (p *Keyed[T]) acquire(ctx context.Context, sem *semaphore.Weighted) error {
	if !p.options.Block {
		if !sem.TryAcquire(1) {
			return ErrExhausted
		}
		return nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("pool: waiting for capacity: %w", err)
	}
	// A close while suspended must not hand out an instance.
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		sem.Release(1)
		return ErrClosed
	}
	return nil
}

func (p *Keyed[T]) takeIdle(entry *keyEntry[T]) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	if len(entry.idle) == 0 {
		return zero, false
	}

	var instance T
	if p.options.LIFO {
		instance = entry.idle[len(entry.idle)-1]
		entry.idle = entry.idle[:len(entry.idle)-1]
	} else {
		instance = entry.idle[0]
		entry.idle = entry.idle[1:]
	}
	return instance, true
}
