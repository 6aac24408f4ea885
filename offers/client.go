package offers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/delaneyj/screwless/holohash"
)

var (
	ErrNotFound     = errors.New("offer not found")
	ErrDeleted      = errors.New("offer deleted")
	ErrInvalidOffer = errors.New("invalid offer")
)

// Client is the remote side the store reads from and writes to. Reads must be
// safe to repeat; the store polls them.
type Client interface {
	// GetOffer returns the latest version of the offer created by original,
	// or nil when it does not exist or was deleted.
	GetOffer(ctx context.Context, original holohash.ActionHash) (*Record, error)
	GetAllOffers(ctx context.Context) ([]*Record, error)
	GetOffersForPair(ctx context.Context, pair Pair) ([]*Record, error)

	CreateOffer(ctx context.Context, offer Offer) (*Record, error)
	// UpdateOffer writes a new version of original on top of previous.
	UpdateOffer(ctx context.Context, original, previous holohash.ActionHash, offer Offer) (*Record, error)
	// DeleteOffer returns the hash of the delete action.
	DeleteOffer(ctx context.Context, original holohash.ActionHash) (holohash.ActionHash, error)
}
