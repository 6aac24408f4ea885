package templates

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/delaneyj/screwless/holohash"
	"github.com/delaneyj/screwless/offers"
)

func TestOfferDetail(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r := &offers.Record{
		ActionHash: holohash.FromContent(holohash.KindAction, []byte("offer")),
		Author:     holohash.FromContent(holohash.KindAgent, []byte("alice")),
		Offer: offers.Offer{
			Amount:            12.5,
			OfferedCurrency:   "EUR",
			RequestedCurrency: "CHF",
			AvailableFrom:     offers.FromTime(now.Add(-2 * time.Hour)),
			AvailableUntil:    offers.FromTime(now.Add(3 * 24 * time.Hour)),
			Airport:           "ZRH",
		},
	}

	out := OfferDetail(r, now)
	assert.Contains(t, out, r.ActionHash.String())
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "EUR")
	assert.Contains(t, out, "CHF")
	assert.Contains(t, out, "ZRH")
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "3 days from now")
	assert.Contains(t, out, r.Author.Short())
}

func TestOfferMissingAndError(t *testing.T) {
	assert.Contains(t, OfferMissing("uhCkkabc"), "The requested offer uhCkkabc doesn't exist")
	assert.Contains(t, OfferError(errors.New("timeout")), "Error fetching the offer: timeout")
}
