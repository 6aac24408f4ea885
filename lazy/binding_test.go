package lazy_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/screwless/lazy"
)

func newCountingPoller(clock clockwork.Clock) (*lazy.Poller[int64], *atomic.Int64) {
	calls := &atomic.Int64{}
	p := lazy.NewPoller(func(ctx context.Context) (int64, error) {
		return calls.Add(1), nil
	}, lazy.WithClock(clock), lazy.WithInterval(interval))
	return p, calls
}

func TestAttach(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p, _ := newCountingPoller(clock)

	rec := newRecorder[int64]()
	b := lazy.Attach[int64](p, rec.record)
	assert.True(t, rec.next(t).IsPending())
	assert.Equal(t, lazy.Complete[int64](1), rec.next(t))
	assert.Equal(t, lazy.Active, p.State())

	b.Close()
	b.Close()
	assert.Equal(t, lazy.Idle, p.State())
	clock.Advance(interval)
	rec.none(t, 20*time.Millisecond)
}

func TestAttachClosesOnPanic(t *testing.T) {
	p, _ := newCountingPoller(clockwork.NewFakeClock())

	mount := func() {
		b := lazy.Attach[int64](p, func(lazy.Status[int64]) {})
		defer b.Close()
		require.Equal(t, 1, p.Subscribers())
		panic("render failed")
	}
	assert.Panics(t, mount)
	assert.Equal(t, 0, p.Subscribers())
	assert.Equal(t, lazy.Idle, p.State())
}

func TestAttachFirstDeliveryPanics(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p, calls := newCountingPoller(clock)

	var torn atomic.Int64
	assert.Panics(t, func() {
		lazy.Attach[int64](p, func(lazy.Status[int64]) {
			if torn.Add(1) == 1 {
				panic("render failed")
			}
		})
	})
	assert.Equal(t, 0, p.Subscribers())
	assert.Equal(t, lazy.Idle, p.State())
	assert.EqualValues(t, 0, calls.Load())

	rec := newRecorder[int64]()
	b := lazy.Attach[int64](p, rec.record)
	defer b.Close()
	rec.next(t)
	assert.Equal(t, lazy.Complete[int64](1), rec.next(t))
	clock.Advance(interval)
	assert.Equal(t, lazy.Complete[int64](2), rec.next(t))

	assert.Equal(t, 1, p.Subscribers())
	assert.EqualValues(t, 1, torn.Load(), "the failed observer never hears again")

	v := lazy.NewValue[int]()
	var hits atomic.Int64
	assert.Panics(t, func() {
		v.Subscribe(func(lazy.Status[int]) {
			hits.Add(1)
			panic("render failed")
		})
	})
	assert.Equal(t, 0, v.Subscribers())
	v.Set(lazy.Complete(1))
	assert.EqualValues(t, 1, hits.Load())
}

func TestBinder(t *testing.T) {
	t.Run("one binding per observer and source", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		p, _ := newCountingPoller(clock)
		binder := lazy.NewBinder()

		first := newRecorder[int64]()
		lazy.Bind[int64](binder, "offer-detail#1", p, first.record)
		first.next(t)
		first.next(t)

		second := newRecorder[int64]()
		lazy.Bind[int64](binder, "offer-detail#1", p, second.record)
		assert.Equal(t, lazy.Complete[int64](1), second.next(t))

		assert.Equal(t, 1, binder.Len())
		assert.Equal(t, 1, p.Subscribers())
		assert.True(t, binder.Bound("offer-detail#1", p))

		clock.Advance(interval)
		assert.Equal(t, lazy.Complete[int64](2), second.next(t))
		first.none(t, 20*time.Millisecond)
	})

	t.Run("different observers share the poller", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		p, calls := newCountingPoller(clock)
		binder := lazy.NewBinder()

		a, b := newRecorder[int64](), newRecorder[int64]()
		lazy.Bind[int64](binder, "summary#1", p, a.record)
		lazy.Bind[int64](binder, "summary#2", p, b.record)
		require.Eventually(t, func() bool { return p.Current().IsComplete() }, waitFor, time.Millisecond)

		assert.Equal(t, 2, binder.Len())
		assert.Equal(t, 2, p.Subscribers())
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("detach closes everything of an observer", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		p1, _ := newCountingPoller(clock)
		p2, _ := newCountingPoller(clock)
		binder := lazy.NewBinder()

		rec := newRecorder[int64]()
		lazy.Bind[int64](binder, "all-offers", p1, rec.record)
		lazy.Bind[int64](binder, "all-offers", p2, rec.record)
		other := lazy.Bind[int64](binder, "offer-summary", p1, func(lazy.Status[int64]) {})
		assert.Equal(t, 3, binder.Len())

		binder.Detach("all-offers")
		assert.Equal(t, 1, binder.Len())
		assert.False(t, binder.Bound("all-offers", p1))
		assert.Equal(t, 1, p1.Subscribers())
		assert.Equal(t, lazy.Idle, p2.State())

		binder.Detach("all-offers")
		other.Close()
		assert.Equal(t, 0, binder.Len())
		assert.Equal(t, lazy.Idle, p1.State())
	})

	t.Run("remount keeps a single subscription", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		p, calls := newCountingPoller(clock)
		binder := lazy.NewBinder()

		first := newRecorder[int64]()
		old := lazy.Bind[int64](binder, "offer-detail", p, first.record)
		first.next(t)
		require.Equal(t, lazy.Complete[int64](1), first.next(t))

		var seenSubscribers atomic.Int64
		second := newRecorder[int64]()
		b := lazy.Bind[int64](binder, "offer-detail", p, func(s lazy.Status[int64]) {
			seenSubscribers.CompareAndSwap(0, int64(p.Subscribers()))
			second.record(s)
		})
		defer b.Close()
		assert.Equal(t, lazy.Complete[int64](1), second.next(t))
		assert.EqualValues(t, 1, seenSubscribers.Load())
		assert.Equal(t, 1, p.Subscribers())
		assert.Equal(t, 1, binder.Len())

		old.Close()
		assert.Equal(t, 1, p.Subscribers(), "closing the replaced binding is a no-op")
		assert.True(t, binder.Bound("offer-detail", p))

		clock.Advance(interval)
		assert.Equal(t, lazy.Complete[int64](2), second.next(t))
		first.none(t, 20*time.Millisecond)
		assert.EqualValues(t, 2, calls.Load(), "no extra fetch from the remount")
	})

	t.Run("remount that panics unbinds", func(t *testing.T) {
		p, _ := newCountingPoller(clockwork.NewFakeClock())
		binder := lazy.NewBinder()

		lazy.Bind[int64](binder, "offer-detail", p, func(lazy.Status[int64]) {})
		require.Eventually(t, func() bool { return p.Current().IsComplete() }, waitFor, time.Millisecond)

		assert.Panics(t, func() {
			lazy.Bind[int64](binder, "offer-detail", p, func(lazy.Status[int64]) {
				panic("render failed")
			})
		})
		assert.Equal(t, 0, binder.Len())
		assert.Equal(t, 0, p.Subscribers())
		assert.Equal(t, lazy.Idle, p.State())
	})

	t.Run("sources are told apart by identity", func(t *testing.T) {
		binder := lazy.NewBinder()
		a, b := lazy.NewValue[int](), lazy.NewValue[int]()

		lazy.Bind[int](binder, "summary", a, func(lazy.Status[int]) {})
		lazy.Bind[int](binder, "summary", b, func(lazy.Status[int]) {})
		assert.Equal(t, 2, binder.Len())
		assert.True(t, binder.Bound("summary", a))
		assert.True(t, binder.Bound("summary", b))
		assert.False(t, binder.Bound("summary", lazy.NewValue[int]()))

		binder.Detach("summary")
		assert.Equal(t, 0, a.Subscribers())
		assert.Equal(t, 0, b.Subscribers())
	})

	t.Run("remount after close", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		p, calls := newCountingPoller(clock)
		binder := lazy.NewBinder()

		b := lazy.Bind[int64](binder, "offer-detail", p, func(lazy.Status[int64]) {})
		require.Eventually(t, func() bool { return p.Current().IsComplete() }, waitFor, time.Millisecond)
		b.Close()
		assert.Equal(t, 0, binder.Len())

		rec := newRecorder[int64]()
		b = lazy.Bind[int64](binder, "offer-detail", p, rec.record)
		defer b.Close()
		assert.Equal(t, lazy.Complete[int64](1), rec.next(t))
		assert.Equal(t, lazy.Complete[int64](2), rec.next(t))
		assert.EqualValues(t, 2, calls.Load())
		assert.Equal(t, 1, binder.Len())
	})
}
