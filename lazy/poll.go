package lazy

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Fetcher loads the current value from the remote side. It is called again on
// every tick, so it has to be safe to repeat.
type Fetcher[T any] func(ctx context.Context) (T, error)

// PollState is Idle without subscribers and Active with at least one.
type PollState uint8

const (
	Idle PollState = iota
	Active
)

func (s PollState) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Poller is a Value refreshed by a Fetcher. The first subscriber triggers a
// fetch right away and arms a ticker; the last one to leave stops the ticker.
// At most one fetch is in flight at any time, ticks that land while one is
// running are dropped. Failures become error statuses and polling continues.
type Poller[T any] struct {
	value *Value[T]
	fetch Fetcher[T]
	cfg   settings
	log   zerolog.Logger

	mu          sync.Mutex
	subscribers int
	inFlight    bool
	queued      bool
	generation  uint64
	ticker      clockwork.Ticker
	stop        chan struct{}
}

func NewPoller[T any](fetch Fetcher[T], opts ...Option) *Poller[T] {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Poller[T]{
		value: NewValue[T](),
		fetch: fetch,
		cfg:   cfg,
		log:   cfg.logger.With().Str("poller", cfg.name).Logger(),
	}
}

func (p *Poller[T]) Current() Status[T] {
	return p.value.Current()
}

// Subscribe delivers the current status to fn and then every new one. The
// first subscriber activates polling.
func (p *Poller[T]) Subscribe(fn func(Status[T])) *Subscription[T] {
	sub := p.value.subscribe(fn, p.Unsubscribe)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers++
	if p.subscribers == 1 {
		p.activateLocked()
	}
	return sub
}

// Unsubscribe is the same as sub.Cancel(). Removing the last subscriber stops
// the ticker; a fetch already running still lands in the cached status.
func (p *Poller[T]) Unsubscribe(sub *Subscription[T]) {
	if p.value.remove(sub) {
		p.mu.Lock()
		p.subscribers--
		if p.subscribers == 0 {
			p.deactivateLocked()
		}
		p.mu.Unlock()
	}
	sub.close()
}

// Refresh fetches now on behalf of the current subscribers. Without
// subscribers it does nothing and returns false. While a fetch is in flight a
// single follow-up fetch is queued instead, so a change made after the
// running fetch read the remote side is still picked up.
func (p *Poller[T]) Refresh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subscribers == 0 {
		return false
	}
	if p.inFlight {
		p.queued = true
		return true
	}
	p.startFetchLocked()
	return true
}

func (p *Poller[T]) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subscribers > 0 {
		return Active
	}
	return Idle
}

// Fetching reports whether a fetch is outstanding.
func (p *Poller[T]) Fetching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

func (p *Poller[T]) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subscribers
}

func (p *Poller[T]) activateLocked() {
	p.generation++
	p.ticker = p.cfg.clock.NewTicker(p.cfg.interval)
	p.stop = make(chan struct{})
	go p.loop(p.generation, p.ticker, p.stop)

	p.log.Debug().Dur("interval", p.cfg.interval).Msg("polling started")
	p.cfg.collector.PollerActive(p.cfg.name, true)

	if !p.inFlight {
		p.startFetchLocked()
	}
}

func (p *Poller[T]) deactivateLocked() {
	// A tick already pulled off the channel by the old loop sees a stale
	// generation and is ignored.
	p.generation++
	p.ticker.Stop()
	close(p.stop)
	p.ticker = nil
	p.stop = nil
	p.queued = false

	p.log.Debug().Msg("polling stopped")
	p.cfg.collector.PollerActive(p.cfg.name, false)
}

func (p *Poller[T]) loop(generation uint64, ticker clockwork.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			p.tick(generation)
		}
	}
}

func (p *Poller[T]) tick(generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if generation != p.generation || p.subscribers == 0 {
		return
	}
	if p.inFlight {
		p.cfg.collector.TickSkipped(p.cfg.name)
		return
	}
	p.startFetchLocked()
}

func (p *Poller[T]) startFetchLocked() {
	p.inFlight = true
	go p.run()
}

func (p *Poller[T]) run() {
	start := p.cfg.clock.Now()
	p.cfg.collector.FetchStarted(p.cfg.name)

	value, err := p.call()
	took := p.cfg.clock.Since(start)

	status := Complete(value)
	if err != nil {
		p.log.Warn().Err(err).Dur("took", took).Msg("fetch failed")
		p.cfg.collector.FetchFailed(p.cfg.name, took)
		status = Failed[T](err)
	} else {
		p.cfg.collector.FetchCompleted(p.cfg.name, took)
	}

	// The flag is cleared while holding the delivery lock: subscribers never
	// see a result while the poller still claims to be fetching, and the next
	// fetch cannot publish ahead of this one.
	p.value.publish(status, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.queued && p.subscribers > 0 {
			p.queued = false
			go p.run()
			return
		}
		p.queued = false
		p.inFlight = false
	})
}

func (p *Poller[T]) call() (value T, err error) {
	ctx := p.cfg.ctx
	if p.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, fmt.Errorf("lazy: fetch panicked: %v", r)
		}
	}()
	return p.fetch(ctx)
}
