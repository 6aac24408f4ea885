package lazy

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Source is anything that holds a Status and lets callers observe it.
// Value and Poller both satisfy it. A Binder uses the Source itself as part of
// its map key, so implementations must be comparable; pointer types are.
type Source[T any] interface {
	Subscribe(fn func(Status[T])) *Subscription[T]
	Current() Status[T]
}

// Subscription is the handle returned by Subscribe.
type Subscription[T any] struct {
	mu       sync.Mutex
	fn       func(Status[T])
	closed   bool
	cancel   func(*Subscription[T])
	retarget func(*Subscription[T], func(Status[T])) bool
}

// Cancel detaches the subscription. It is idempotent, and once it returns the
// callback is not running and will not run again. It must not be called from
// inside the subscription's own callback.
func (s *Subscription[T]) Cancel() {
	s.cancel(s)
}

// replace points the subscription at fn without unsubscribing. It reports
// false when the subscription is already gone.
func (s *Subscription[T]) replace(fn func(Status[T])) bool {
	if s.retarget == nil {
		return false
	}
	return s.retarget(s, fn)
}

func (s *Subscription[T]) deliver(status Status[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(status)
}

func (s *Subscription[T]) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Value is an observable Status holder. It starts pending and every Set is
// delivered to all current subscribers.
type Value[T any] struct {
	// delivering serialises Set and the initial delivery in Subscribe, so
	// every subscriber sees the same sequence of statuses.
	delivering sync.Mutex

	mu     sync.RWMutex
	status Status[T]
	subs   mapset.Set[*Subscription[T]]
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{
		status: Pending[T](),
		subs:   mapset.NewThreadUnsafeSet[*Subscription[T]](),
	}
}

// Current returns the latest status without subscribing.
func (v *Value[T]) Current() Status[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.subs.Cardinality()
}

// Subscribe registers fn and immediately delivers the current status to it,
// followed by every later change. Callbacks must not subscribe to or
// unsubscribe from the same Value synchronously.
func (v *Value[T]) Subscribe(fn func(Status[T])) *Subscription[T] {
	return v.subscribe(fn, v.Unsubscribe)
}

// Unsubscribe is the same as sub.Cancel().
func (v *Value[T]) Unsubscribe(sub *Subscription[T]) {
	v.remove(sub)
	sub.close()
}

// Set publishes a new status to every subscriber.
func (v *Value[T]) Set(status Status[T]) {
	v.publish(status, nil)
}

// publish runs before, if any, once no other delivery is in progress and
// before the new status is visible.
func (v *Value[T]) publish(status Status[T], before func()) {
	v.delivering.Lock()
	defer v.delivering.Unlock()

	if before != nil {
		before()
	}

	v.mu.Lock()
	v.status = status
	subs := v.subs.ToSlice()
	v.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(status)
	}
}

// subscribe registers fn and delivers the current status to it. When that
// first delivery panics the subscription is dropped again before the panic
// reaches the caller, who never got a handle to cancel it with.
func (v *Value[T]) subscribe(fn func(Status[T]), cancel func(*Subscription[T])) *Subscription[T] {
	sub := &Subscription[T]{fn: fn, cancel: cancel, retarget: v.replace}

	v.delivering.Lock()
	defer v.delivering.Unlock()

	v.mu.Lock()
	v.subs.Add(sub)
	current := v.status
	v.mu.Unlock()

	delivered := false
	defer func() {
		if !delivered {
			v.remove(sub)
			sub.close()
		}
	}()
	sub.deliver(current)
	delivered = true
	return sub
}

// replace swaps the callback of a live subscription and hands it the current
// status, in order with every other delivery. The previous callback is not
// running and will not run again once replace returns.
func (v *Value[T]) replace(sub *Subscription[T], fn func(Status[T])) bool {
	v.delivering.Lock()
	defer v.delivering.Unlock()

	v.mu.RLock()
	registered := v.subs.Contains(sub)
	current := v.status
	v.mu.RUnlock()
	if !registered {
		return false
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return false
	}
	sub.fn = fn
	fn(current)
	return true
}

// remove reports whether sub was still registered.
func (v *Value[T]) remove(sub *Subscription[T]) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.subs.Contains(sub) {
		return false
	}
	v.subs.Remove(sub)
	return true
}
