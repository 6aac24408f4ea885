package offers

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/delaneyj/screwless/holohash"
	"github.com/delaneyj/screwless/lazy"
	"github.com/delaneyj/screwless/telemetry"
)

// Config holds the store's tunables.
type Config struct {
	// PollInterval is how often an observed offer or listing is refetched.
	PollInterval time.Duration
	// FetchTimeout bounds each fetch; zero disables it.
	FetchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 4 * time.Second,
	}
}

type storeSettings struct {
	cfg       Config
	logger    zerolog.Logger
	collector telemetry.Collector
	clock     clockwork.Clock
	ctx       context.Context
}

// Option configures a Store.
type Option func(*storeSettings)

func WithConfig(cfg Config) Option {
	return func(s *storeSettings) {
		if cfg.PollInterval > 0 {
			s.cfg.PollInterval = cfg.PollInterval
		}
		if cfg.FetchTimeout >= 0 {
			s.cfg.FetchTimeout = cfg.FetchTimeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *storeSettings) {
		s.logger = logger
	}
}

func WithCollector(c telemetry.Collector) Option {
	return func(s *storeSettings) {
		if c != nil {
			s.collector = c
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *storeSettings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithContext sets the parent context of every fetch the store issues.
func WithContext(ctx context.Context) Option {
	return func(s *storeSettings) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// Store shares one poller per offer, per pair and for the full listing
// between every observer in the process.
type Store struct {
	client    Client
	log       zerolog.Logger
	offers    *lazy.HashMap[holohash.ActionHash, *lazy.Poller[*Record]]
	pairs     *lazy.HashMap[Pair, *lazy.Poller[[]holohash.ActionHash]]
	allOffers *lazy.Poller[[]holohash.ActionHash]
}

func NewStore(client Client, opts ...Option) *Store {
	settings := storeSettings{
		cfg:       DefaultConfig(),
		logger:    zerolog.Nop(),
		collector: telemetry.Noop(),
		clock:     clockwork.NewRealClock(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	pollerOpts := func(name string) []lazy.Option {
		return []lazy.Option{
			lazy.WithName(name),
			lazy.WithInterval(settings.cfg.PollInterval),
			lazy.WithFetchTimeout(settings.cfg.FetchTimeout),
			lazy.WithClock(settings.clock),
			lazy.WithContext(settings.ctx),
			lazy.WithLogger(settings.logger),
			lazy.WithCollector(settings.collector),
		}
	}

	s := &Store{
		client: client,
		log:    settings.logger.With().Str("component", "offers_store").Logger(),
	}
	s.offers = lazy.NewHashMap(func(hash holohash.ActionHash) *lazy.Poller[*Record] {
		return lazy.NewPoller(func(ctx context.Context) (*Record, error) {
			return client.GetOffer(ctx, hash)
		}, pollerOpts("offer")...)
	})
	s.pairs = lazy.NewHashMap(func(pair Pair) *lazy.Poller[[]holohash.ActionHash] {
		return lazy.NewPoller(func(ctx context.Context) ([]holohash.ActionHash, error) {
			records, err := client.GetOffersForPair(ctx, pair)
			if err != nil {
				return nil, err
			}
			return Hashes(records), nil
		}, pollerOpts("offers_for_pair")...)
	})
	s.allOffers = lazy.NewPoller(func(ctx context.Context) ([]holohash.ActionHash, error) {
		records, err := client.GetAllOffers(ctx)
		if err != nil {
			return nil, err
		}
		return Hashes(records), nil
	}, pollerOpts("all_offers")...)
	return s
}

func (s *Store) Client() Client {
	return s.client
}

// Offer returns the shared poller for the offer created by hash. Its value is
// nil once the offer is deleted.
func (s *Store) Offer(hash holohash.ActionHash) *lazy.Poller[*Record] {
	return s.offers.Get(hash)
}

// AllOffers returns the shared poller for the hashes of every live offer.
func (s *Store) AllOffers() *lazy.Poller[[]holohash.ActionHash] {
	return s.allOffers
}

// OffersForPair returns the shared poller for the offers indexed under pair.
func (s *Store) OffersForPair(pair Pair) *lazy.Poller[[]holohash.ActionHash] {
	return s.pairs.Get(pair)
}

// CachedOffers reports how many offer pollers have been built.
func (s *Store) CachedOffers() int {
	return s.offers.Len()
}

// CreateOffer writes through the client and refreshes the watched listings
// that can contain the new offer. Errors are returned as is, without retry.
func (s *Store) CreateOffer(ctx context.Context, offer Offer) (*Record, error) {
	record, err := s.client.CreateOffer(ctx, offer)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Stringer("offer", record.ActionHash).Msg("offer created")
	s.allOffers.Refresh()
	if p, ok := s.pairs.Peek(offer.Pair()); ok {
		p.Refresh()
	}
	return record, nil
}

// UpdateOffer writes a new version of original and refreshes its poller if
// anyone is watching it.
func (s *Store) UpdateOffer(ctx context.Context, original, previous holohash.ActionHash, offer Offer) (*Record, error) {
	record, err := s.client.UpdateOffer(ctx, original, previous, offer)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Stringer("offer", original).Stringer("update", record.ActionHash).Msg("offer updated")
	if p, ok := s.offers.Peek(original); ok {
		p.Refresh()
	}
	return record, nil
}

// DeleteOffer deletes original and refreshes every watched poller that may
// show it. Idle pollers pick the change up when they are next subscribed.
func (s *Store) DeleteOffer(ctx context.Context, original holohash.ActionHash) (holohash.ActionHash, error) {
	del, err := s.client.DeleteOffer(ctx, original)
	if err != nil {
		return del, err
	}
	s.log.Debug().Stringer("offer", original).Msg("offer deleted")
	if p, ok := s.offers.Peek(original); ok {
		p.Refresh()
	}
	s.allOffers.Refresh()
	for _, pair := range s.pairs.Keys() {
		if p, ok := s.pairs.Peek(pair); ok {
			p.Refresh()
		}
	}
	return del, nil
}
