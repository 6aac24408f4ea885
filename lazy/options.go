package lazy

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/delaneyj/screwless/telemetry"
)

// DefaultInterval is the poll interval used when none is given.
const DefaultInterval = 4 * time.Second

type settings struct {
	name      string
	interval  time.Duration
	timeout   time.Duration
	clock     clockwork.Clock
	ctx       context.Context
	logger    zerolog.Logger
	collector telemetry.Collector
}

func defaultSettings() settings {
	return settings{
		name:      "poller",
		interval:  DefaultInterval,
		clock:     clockwork.NewRealClock(),
		ctx:       context.Background(),
		logger:    zerolog.Nop(),
		collector: telemetry.Noop(),
	}
}

// Option configures a Poller.
type Option func(*settings)

// WithName labels the poller in logs and metrics.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithInterval sets the time between polls. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFetchTimeout bounds every fetch. Zero means no timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithContext sets the parent context of every fetch.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithCollector(c telemetry.Collector) Option {
	return func(s *settings) {
		if c != nil {
			s.collector = c
		}
	}
}
