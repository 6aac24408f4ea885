package offers

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/delaneyj/screwless/holohash"
)

var (
	Currencies = []string{"EUR", "USD", "YEN", "CHF", "HOT", "HoloFuel"}
	Airports   = []string{"AMS", "LAX", "LHR", "ZRH"}
)

// Timestamp is microseconds since the Unix epoch.
type Timestamp int64

func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMicro())
}

func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(ts))
}

// Offer is an amount of one currency offered against another at an airport
// during a time window.
type Offer struct {
	Amount            float32   `json:"amount"`
	OfferedCurrency   string    `json:"offered_currency"`
	RequestedCurrency string    `json:"requested_currency"`
	AvailableFrom     Timestamp `json:"available_from"`
	AvailableUntil    Timestamp `json:"available_until"`
	Airport           string    `json:"airport"`
}

func (o Offer) Pair() Pair {
	return Pair{
		Airport:           o.Airport,
		OfferedCurrency:   o.OfferedCurrency,
		RequestedCurrency: o.RequestedCurrency,
	}
}

// Validate rejects offers the backend would not store.
func (o Offer) Validate() error {
	switch {
	case math.IsNaN(float64(o.Amount)) || math.IsInf(float64(o.Amount), 0):
		return errors.WithMessage(ErrInvalidOffer, "amount is not a finite number")
	case o.Amount < 0:
		return errors.WithMessagef(ErrInvalidOffer, "amount %v is negative", o.Amount)
	case strings.TrimSpace(o.OfferedCurrency) == "":
		return errors.WithMessage(ErrInvalidOffer, "offered currency is empty")
	case strings.TrimSpace(o.RequestedCurrency) == "":
		return errors.WithMessage(ErrInvalidOffer, "requested currency is empty")
	case strings.TrimSpace(o.Airport) == "":
		return errors.WithMessage(ErrInvalidOffer, "airport is empty")
	case o.AvailableFrom > o.AvailableUntil:
		return errors.WithMessage(ErrInvalidOffer, "available from is after available until")
	}
	return nil
}

// Record is a stored offer together with the action that wrote it.
type Record struct {
	ActionHash holohash.ActionHash  `json:"action_hash"`
	EntryHash  holohash.EntryHash   `json:"entry_hash"`
	Author     holohash.AgentPubKey `json:"author"`
	Timestamp  Timestamp            `json:"timestamp"`
	Offer      Offer                `json:"offer"`
}

// Pair is the (airport, offered, requested) triple offers are indexed by.
type Pair struct {
	Airport           string `json:"airport"`
	OfferedCurrency   string `json:"offered_currency"`
	RequestedCurrency string `json:"requested_currency"`
}

// Path is the index path, e.g. "AMS.EUR.USD".
func (p Pair) Path() string {
	return fmt.Sprintf("%s.%s.%s", p.Airport, p.OfferedCurrency, p.RequestedCurrency)
}

func (p Pair) String() string {
	return p.Path()
}

func (p Pair) Sum64() uint64 {
	return xxhash.Sum64String(p.Path())
}

// Hashes returns the action hashes of records, keeping their order.
func Hashes(records []*Record) []holohash.ActionHash {
	hashes := make([]holohash.ActionHash, 0, len(records))
	for _, r := range records {
		hashes = append(hashes, r.ActionHash)
	}
	return hashes
}
