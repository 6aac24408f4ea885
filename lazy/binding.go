package lazy

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// ObserverID names one mounted observer, e.g. a view instance.
type ObserverID string

// Binding ties one observer to one Source. Close it when the observer goes
// away, usually with defer so every exit path unsubscribes.
type Binding struct {
	mu     sync.Mutex
	closed bool
	cancel func()
	// replace is the subscription's replace method, typed for its Status.
	replace any
	detach  func(*Binding)
}

// Close unsubscribes. Once it returns the change callback is not running and
// will not run again. Safe to call more than once.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.detach != nil {
		b.detach(b)
	}
	b.cancel()
}

// handOver retires b without unsubscribing and returns a new Binding that owns
// the subscription. Closing b afterwards is a no-op.
func (b *Binding) handOver() (*Binding, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.replace == nil {
		return nil, false
	}
	b.closed = true
	return &Binding{cancel: b.cancel, replace: b.replace}, true
}

// Attach subscribes onChange to src for as long as the returned Binding is
// open. onChange first sees the current status.
func Attach[T any](src Source[T], onChange func(Status[T])) *Binding {
	sub := src.Subscribe(onChange)
	return &Binding{cancel: sub.Cancel, replace: sub.replace}
}

type bindingKey struct {
	observer ObserverID
	source   any
}

// Binder keeps at most one Binding per (observer, source) pair. Sources are
// told apart by identity, so they must be comparable.
type Binder struct {
	mu         sync.Mutex
	bindings   map[bindingKey]*Binding
	byObserver map[ObserverID]mapset.Set[bindingKey]
}

func NewBinder() *Binder {
	return &Binder{
		bindings:   map[bindingKey]*Binding{},
		byObserver: map[ObserverID]mapset.Set[bindingKey]{},
	}
}

// Bind attaches observer to src through b. When the pair is already bound the
// existing subscription is handed to onChange, which first sees the current
// status: the pair never holds two subscriptions, the source never drops to
// zero subscribers, and once Bind returns the previous callback is not running
// and will not run again. The previous Binding becomes closed; closing it
// again does not affect the new one.
func Bind[T any](b *Binder, observer ObserverID, src Source[T], onChange func(Status[T])) *Binding {
	key := bindingKey{observer: observer, source: src}

	b.mu.Lock()
	old := b.bindings[key]
	b.mu.Unlock()

	if old != nil {
		if binding, ok := rebind(b, key, old, onChange); ok {
			return binding
		}
	}

	binding := Attach(src, onChange)
	if old = b.register(key, binding); old != nil {
		old.Close()
	}
	return binding
}

// rebind moves the subscription held by old over to onChange.
func rebind[T any](b *Binder, key bindingKey, old *Binding, onChange func(Status[T])) (*Binding, bool) {
	replace, ok := old.replace.(func(func(Status[T])) bool)
	if !ok {
		return nil, false
	}
	binding, ok := old.handOver()
	if !ok {
		return nil, false
	}
	if prev := b.register(key, binding); prev != nil && prev != old {
		prev.Close()
	}

	swapped := false
	defer func() {
		if !swapped {
			binding.Close()
		}
	}()
	swapped = replace(onChange)
	return binding, swapped
}

// register makes binding the one held for key and returns the binding it
// displaced, if any.
func (b *Binder) register(key bindingKey, binding *Binding) *Binding {
	binding.detach = func(closed *Binding) {
		b.release(key, closed)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.bindings[key]
	b.bindings[key] = binding
	keys, ok := b.byObserver[key.observer]
	if !ok {
		keys = mapset.NewThreadUnsafeSet[bindingKey]()
		b.byObserver[key.observer] = keys
	}
	keys.Add(key)
	return old
}

// Detach closes every binding held by observer.
func (b *Binder) Detach(observer ObserverID) {
	b.mu.Lock()
	keys, ok := b.byObserver[observer]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.byObserver, observer)
	bindings := make([]*Binding, 0, keys.Cardinality())
	for key := range keys.Iter() {
		if binding, ok := b.bindings[key]; ok {
			bindings = append(bindings, binding)
			delete(b.bindings, key)
		}
	}
	b.mu.Unlock()

	for _, binding := range bindings {
		binding.Close()
	}
}

// Len reports the number of open bindings.
func (b *Binder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bindings)
}

// Bound reports whether observer currently holds a binding to src.
func (b *Binder) Bound(observer ObserverID, src any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.bindings[bindingKey{observer: observer, source: src}]
	return ok
}

func (b *Binder) release(key bindingKey, closed *Binding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bindings[key] == closed {
		b.forgetLocked(key)
	}
}

func (b *Binder) forgetLocked(key bindingKey) {
	delete(b.bindings, key)
	if keys, ok := b.byObserver[key.observer]; ok {
		keys.Remove(key)
		if keys.Cardinality() == 0 {
			delete(b.byObserver, key.observer)
		}
	}
}
