package main

import (
	"context"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/screwless/holohash"
	"github.com/delaneyj/screwless/lazy"
	"github.com/delaneyj/screwless/offers"
	"github.com/delaneyj/screwless/telemetry"
)

type app struct {
	log     zerolog.Logger
	backend *offers.MemoryBackend
	store   *offers.Store
	metrics *http.Server
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), errors.Wrapf(err, "log level %q", level)
		}
		lvl = parsed
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func setup(ctx context.Context, cmd *cli.Command) (*app, error) {
	log, err := newLogger(cmd.String(logLevelKey))
	if err != nil {
		return nil, err
	}

	a := &app{
		log:     log,
		backend: offers.NewMemoryBackend(),
	}

	collector := telemetry.Noop()
	if addr := cmd.String(metricsAddrKey); addr != "" {
		pc, err := telemetry.NewPrometheusCollector(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, errors.WithMessage(err, "registering metrics")
		}
		collector = pc

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", addr).Msg("serving metrics")
	}

	a.store = offers.NewStore(a.backend,
		offers.WithConfig(offers.Config{
			PollInterval: cmd.Duration(pollIntervalKey),
			FetchTimeout: cmd.Duration(fetchTimeoutKey),
		}),
		offers.WithLogger(log),
		offers.WithCollector(collector),
		offers.WithContext(ctx),
	)

	start := time.Now()
	count := int(cmd.Uint(seedKey))
	for i := 0; i < count; i++ {
		if _, err := a.store.CreateOffer(ctx, randomOffer(start)); err != nil {
			return nil, errors.WithMessage(err, "seeding offers")
		}
	}
	log.Debug().Int("offers", count).Dur("took", time.Since(start)).Msg("seeded")

	a.backend.SetLatency(cmd.Duration(latencyKey))
	return a, nil
}

func (a *app) close() {
	if a.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("metrics shutdown")
	}
}

// listing returns the poller matching the pair flags, or the full listing when
// none are set.
func (a *app) listing(cmd *cli.Command) (*lazy.Poller[[]holohash.ActionHash], error) {
	pair := offers.Pair{
		Airport:           cmd.String(airportKey),
		OfferedCurrency:   cmd.String(offeredKey),
		RequestedCurrency: cmd.String(requestedKey),
	}
	if pair == (offers.Pair{}) {
		return a.store.AllOffers(), nil
	}
	if pair.Airport == "" || pair.OfferedCurrency == "" || pair.RequestedCurrency == "" {
		return nil, errors.Errorf("a pair needs --%s, --%s and --%s", airportKey, offeredKey, requestedKey)
	}
	return a.store.OffersForPair(pair), nil
}

// churn creates, updates or deletes a random offer on every tick until ctx is
// done.
func (a *app) churn(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		hashes, _ := a.store.AllOffers().Current().Value()
		var err error
		switch n := rand.IntN(3); {
		case n == 0 || len(hashes) == 0:
			_, err = a.store.CreateOffer(ctx, randomOffer(time.Now()))
		case n == 1:
			err = a.bump(ctx, hashes[rand.IntN(len(hashes))])
		default:
			_, err = a.store.DeleteOffer(ctx, hashes[rand.IntN(len(hashes))])
		}
		if err != nil && ctx.Err() == nil {
			a.log.Warn().Err(err).Msg("churn")
		}
	}
}

func (a *app) bump(ctx context.Context, original holohash.ActionHash) error {
	latest, err := a.store.Client().GetOffer(ctx, original)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}
	changed := latest.Offer
	changed.Amount = randomAmount()
	_, err = a.store.UpdateOffer(ctx, original, latest.ActionHash, changed)
	return err
}

func randomAmount() float32 {
	return float32(1+rand.IntN(99_999)) / 100
}

func randomOffer(now time.Time) offers.Offer {
	offered := offers.Currencies[rand.IntN(len(offers.Currencies))]
	requested := offered
	for requested == offered {
		requested = offers.Currencies[rand.IntN(len(offers.Currencies))]
	}
	from := now.Add(time.Duration(rand.IntN(48)-12) * time.Hour).Truncate(time.Minute)
	return offers.Offer{
		Amount:            randomAmount(),
		OfferedCurrency:   offered,
		RequestedCurrency: requested,
		AvailableFrom:     offers.FromTime(from),
		AvailableUntil:    offers.FromTime(from.Add(time.Duration(1+rand.IntN(72)) * time.Hour)),
		Airport:           offers.Airports[rand.IntN(len(offers.Airports))],
	}
}
