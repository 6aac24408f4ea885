package lazy_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/delaneyj/screwless/lazy"
)

const waitFor = 2 * time.Second

type key string

func (k key) Sum64() uint64 {
	return xxhash.Sum64String(string(k))
}

// recorder collects every status delivered to a callback.
type recorder[T any] struct {
	mu   sync.Mutex
	seen []lazy.Status[T]
	ch   chan lazy.Status[T]
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{ch: make(chan lazy.Status[T], 256)}
}

func (r *recorder[T]) record(s lazy.Status[T]) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
	r.ch <- s
}

func (r *recorder[T]) next(t *testing.T) lazy.Status[T] {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a status")
		return lazy.Status[T]{}
	}
}

func (r *recorder[T]) none(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case s := <-r.ch:
		t.Fatalf("unexpected status %v", s)
	case <-time.After(d):
	}
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// countingCollector counts poller events.
type countingCollector struct {
	started   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	active    atomic.Int64
}

func (c *countingCollector) FetchStarted(string)                  { c.started.Add(1) }
func (c *countingCollector) FetchCompleted(string, time.Duration) { c.completed.Add(1) }
func (c *countingCollector) FetchFailed(string, time.Duration)    { c.failed.Add(1) }
func (c *countingCollector) TickSkipped(string)                   { c.skipped.Add(1) }
func (c *countingCollector) PollerActive(_ string, active bool) {
	if active {
		c.active.Add(1)
		return
	}
	c.active.Add(-1)
}
