package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/screwless/cmd/offers/templates"
	"github.com/delaneyj/screwless/holohash"
	"github.com/delaneyj/screwless/lazy"
	"github.com/delaneyj/screwless/offers"
)

const (
	listingView lazy.ObserverID = "offer-listing"
	detailView  lazy.ObserverID = "offer-detail"
)

func summaryView(hash holohash.ActionHash) lazy.ObserverID {
	return lazy.ObserverID("offer-summary#" + hash.String())
}

// await blocks until src leaves the pending state.
func await[T any](ctx context.Context, src lazy.Source[T]) (T, error) {
	done := make(chan lazy.Status[T], 1)
	b := lazy.Attach[T](src, func(s lazy.Status[T]) {
		if s.IsPending() {
			return
		}
		select {
		case done <- s:
		default:
		}
	})
	defer b.Close()

	select {
	case s := <-done:
		v, _ := s.Value()
		return v, s.Err()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// summaries keeps one binding per listed offer and signals redraw whenever any
// of them changes.
type summaries struct {
	store  *offers.Store
	binder *lazy.Binder
	bound  map[holohash.ActionHash]struct{}
	redraw chan struct{}
}

func newSummaries(store *offers.Store) *summaries {
	return &summaries{
		store:  store,
		binder: lazy.NewBinder(),
		bound:  map[holohash.ActionHash]struct{}{},
		redraw: make(chan struct{}, 1),
	}
}

func (s *summaries) notify() {
	select {
	case s.redraw <- struct{}{}:
	default:
	}
}

func (s *summaries) sync(hashes []holohash.ActionHash) {
	listed := make(map[holohash.ActionHash]struct{}, len(hashes))
	for _, h := range hashes {
		listed[h] = struct{}{}
		if _, ok := s.bound[h]; ok {
			continue
		}
		s.bound[h] = struct{}{}
		lazy.Bind[*offers.Record](s.binder, summaryView(h), s.store.Offer(h), func(lazy.Status[*offers.Record]) {
			s.notify()
		})
	}
	for h := range s.bound {
		if _, ok := listed[h]; !ok {
			s.binder.Detach(summaryView(h))
			delete(s.bound, h)
		}
	}
}

func (s *summaries) settled(hashes []holohash.ActionHash) bool {
	for _, h := range hashes {
		if s.store.Offer(h).Current().IsPending() {
			return false
		}
	}
	return true
}

func (s *summaries) close() {
	for h := range s.bound {
		s.binder.Detach(summaryView(h))
	}
}

func (s *summaries) render(w io.Writer, hashes []holohash.ActionHash) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"offer", "airport", "pair", "amount", "from", "until", "author"})
	for _, h := range hashes {
		status := s.store.Offer(h).Current()
		table.Append(lazy.Match(status,
			func() []string {
				return []string{h.Short(), "…", "", "", "", "", ""}
			},
			func(r *offers.Record) []string {
				if r == nil {
					return []string{h.Short(), "deleted", "", "", "", "", ""}
				}
				return []string{
					h.Short(),
					r.Offer.Airport,
					r.Offer.OfferedCurrency + "/" + r.Offer.RequestedCurrency,
					humanize.CommafWithDigits(float64(r.Offer.Amount), 2),
					humanize.Time(r.Offer.AvailableFrom.Time()),
					humanize.Time(r.Offer.AvailableUntil.Time()),
					r.Author.Short(),
				}
			},
			func(err error) []string {
				return []string{h.Short(), "error", err.Error(), "", "", "", ""}
			},
		))
	}
	table.SetFooter([]string{"", "", "", "", "", "total", humanize.Comma(int64(len(hashes)))})
	table.Render()
}

func list(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	listing, err := a.listing(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	hashes, err := await[[]holohash.ActionHash](ctx, listing)
	if err != nil {
		return errors.WithMessage(err, "fetching offers")
	}

	s := newSummaries(a.store)
	defer s.close()
	s.sync(hashes)
	for !s.settled(hashes) {
		select {
		case <-s.redraw:
		case <-ctx.Done():
			return errors.WithMessage(ctx.Err(), "fetching offer details")
		}
	}
	s.render(os.Stdout, hashes)
	return nil
}

func show(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var hash holohash.ActionHash
	if arg := cmd.Args().First(); arg != "" {
		if hash, err = holohash.Parse(arg); err != nil {
			return err
		}
	} else {
		hashes, err := await[[]holohash.ActionHash](ctx, a.store.AllOffers())
		if err != nil {
			return errors.WithMessage(err, "fetching offers")
		}
		if len(hashes) == 0 {
			return errors.New("there are no offers to show")
		}
		hash = hashes[0]
	}

	binder := lazy.NewBinder()
	defer binder.Detach(detailView)
	done := make(chan string, 1)
	lazy.Bind[*offers.Record](binder, detailView, a.store.Offer(hash), func(s lazy.Status[*offers.Record]) {
		out := lazy.Match(s,
			nil,
			func(r *offers.Record) string {
				if r == nil {
					return templates.OfferMissing(hash.String())
				}
				return templates.OfferDetail(r, time.Now())
			},
			templates.OfferError,
		)
		if out == "" {
			return
		}
		select {
		case done <- out:
		default:
		}
	})

	select {
	case out := <-done:
		fmt.Print(out)
		return nil
	case <-ctx.Done():
		return errors.WithMessage(ctx.Err(), "fetching offer")
	}
}

func watch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration(forKey))
	defer cancel()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	listing, err := a.listing(cmd)
	if err != nil {
		return err
	}

	s := newSummaries(a.store)
	defer s.close()

	changes := make(chan []holohash.ActionHash, 1)
	binder := lazy.NewBinder()
	defer binder.Detach(listingView)
	lazy.Bind[[]holohash.ActionHash](binder, listingView, listing, func(status lazy.Status[[]holohash.ActionHash]) {
		if err := status.Err(); err != nil {
			a.log.Warn().Err(err).Msg("listing")
			return
		}
		hashes, ok := status.Value()
		if !ok {
			return
		}
		// Only the newest listing matters.
		select {
		case <-changes:
		default:
		}
		changes <- hashes
	})

	go a.churn(ctx, cmd.Duration(churnKey))

	var hashes []holohash.ActionHash
	for {
		select {
		case <-ctx.Done():
			a.log.Info().Int("cached_offers", a.store.CachedOffers()).Msg("done watching")
			return nil
		case hashes = <-changes:
			s.sync(hashes)
		case <-s.redraw:
		}
		fmt.Fprintf(os.Stdout, "\n%s\n", time.Now().Format(time.TimeOnly))
		s.render(os.Stdout, hashes)
	}
}
