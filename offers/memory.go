package offers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/delaneyj/screwless/holohash"
)

const allOffersPath = "all_offers"

type link struct {
	target    holohash.ActionHash
	timestamp Timestamp
}

// MemoryBackend is an in-process Client. It keeps the same records and links
// the offers backend keeps: every created offer is linked from the
// "all_offers" path and from its pair path, every update is linked from the
// original create action.
type MemoryBackend struct {
	author holohash.AgentPubKey
	clock  clockwork.Clock

	mu       sync.RWMutex
	records  map[holohash.ActionHash]*Record
	deleted  map[holohash.ActionHash]holohash.ActionHash
	updates  map[holohash.ActionHash][]link
	paths    map[string][]link
	latency  time.Duration
	failures []error
	calls    map[string]int
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

func WithAuthor(author holohash.AgentPubKey) MemoryOption {
	return func(m *MemoryBackend) {
		m.author = author
	}
}

func WithBackendClock(clock clockwork.Clock) MemoryOption {
	return func(m *MemoryBackend) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		author:  holohash.Random(holohash.KindAgent),
		clock:   clockwork.NewRealClock(),
		records: map[holohash.ActionHash]*Record{},
		deleted: map[holohash.ActionHash]holohash.ActionHash{},
		updates: map[holohash.ActionHash][]link{},
		paths:   map[string][]link{},
		calls:   map[string]int{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetLatency delays every call by d.
func (m *MemoryBackend) SetLatency(d time.Duration) {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
}

// FailNext makes the next call return err. Calls queue up.
func (m *MemoryBackend) FailNext(err error) {
	m.mu.Lock()
	m.failures = append(m.failures, err)
	m.mu.Unlock()
}

// Calls reports how many times method was invoked, failed calls included.
func (m *MemoryBackend) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

func (m *MemoryBackend) enter(ctx context.Context, method string) error {
	m.mu.Lock()
	m.calls[method]++
	latency := m.latency
	var injected error
	if len(m.failures) > 0 {
		injected = m.failures[0]
		m.failures = m.failures[1:]
	}
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return errors.WithMessage(ctx.Err(), method)
		case <-m.clock.After(latency):
		}
	}
	if injected != nil {
		return errors.WithMessage(injected, method)
	}
	return ctx.Err()
}

func (m *MemoryBackend) GetOffer(ctx context.Context, original holohash.ActionHash) (*Record, error) {
	if err := m.enter(ctx, "get_offer"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestLocked(original), nil
}

func (m *MemoryBackend) GetAllOffers(ctx context.Context) ([]*Record, error) {
	if err := m.enter(ctx, "get_all_offers"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.followLocked(allOffersPath), nil
}

func (m *MemoryBackend) GetOffersForPair(ctx context.Context, pair Pair) ([]*Record, error) {
	if err := m.enter(ctx, "get_offers_for_currency_pair"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.followLocked(pair.Path()), nil
}

func (m *MemoryBackend) CreateOffer(ctx context.Context, offer Offer) (*Record, error) {
	if err := m.enter(ctx, "create_offer"); err != nil {
		return nil, err
	}
	if err := offer.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	record, err := m.commitLocked(offer, "create")
	if err != nil {
		return nil, err
	}
	l := link{target: record.ActionHash, timestamp: record.Timestamp}
	m.paths[allOffersPath] = append(m.paths[allOffersPath], l)
	path := offer.Pair().Path()
	m.paths[path] = append(m.paths[path], l)
	return record, nil
}

func (m *MemoryBackend) UpdateOffer(ctx context.Context, original, previous holohash.ActionHash, offer Offer) (*Record, error) {
	if err := m.enter(ctx, "update_offer"); err != nil {
		return nil, err
	}
	if err := offer.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[original]; !ok {
		return nil, errors.WithMessagef(ErrNotFound, "original %s", original.Short())
	}
	if _, ok := m.records[previous]; !ok {
		return nil, errors.WithMessagef(ErrNotFound, "previous %s", previous.Short())
	}
	if _, ok := m.deleted[original]; ok {
		return nil, errors.WithMessagef(ErrDeleted, "original %s", original.Short())
	}
	record, err := m.commitLocked(offer, "update:"+previous.String())
	if err != nil {
		return nil, err
	}
	m.updates[original] = append(m.updates[original], link{target: record.ActionHash, timestamp: record.Timestamp})
	return record, nil
}

func (m *MemoryBackend) DeleteOffer(ctx context.Context, original holohash.ActionHash) (holohash.ActionHash, error) {
	if err := m.enter(ctx, "delete_offer"); err != nil {
		return holohash.ActionHash{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[original]; !ok {
		return holohash.ActionHash{}, errors.WithMessagef(ErrNotFound, "original %s", original.Short())
	}
	if del, ok := m.deleted[original]; ok {
		return del, nil
	}
	del := holohash.FromContent(holohash.KindAction, append([]byte("delete:"), original[:]...))
	m.deleted[original] = del
	return del, nil
}

func (m *MemoryBackend) commitLocked(offer Offer, action string) (*Record, error) {
	entry, err := json.Marshal(offer)
	if err != nil {
		return nil, errors.WithMessage(err, "encoding offer")
	}
	now := FromTime(m.clock.Now())
	seq := len(m.records)
	header, err := json.Marshal(struct {
		Action    string               `json:"action"`
		Author    holohash.AgentPubKey `json:"author"`
		Timestamp Timestamp            `json:"timestamp"`
		Seq       int                  `json:"seq"`
		Entry     json.RawMessage      `json:"entry"`
	}{action, m.author, now, seq, entry})
	if err != nil {
		return nil, errors.WithMessage(err, "encoding action")
	}

	record := &Record{
		ActionHash: holohash.FromContent(holohash.KindAction, header),
		EntryHash:  holohash.FromContent(holohash.KindEntry, entry),
		Author:     m.author,
		Timestamp:  now,
		Offer:      offer,
	}
	m.records[record.ActionHash] = record
	return record, nil
}

// latestLocked follows the newest update link of original. Ties on timestamp
// go to the later link.
func (m *MemoryBackend) latestLocked(original holohash.ActionHash) *Record {
	if _, ok := m.deleted[original]; ok {
		return nil
	}
	target := original
	var newest *link
	for i := range m.updates[original] {
		l := &m.updates[original][i]
		if newest == nil || l.timestamp >= newest.timestamp {
			newest = l
		}
	}
	if newest != nil {
		target = newest.target
	}
	record, ok := m.records[target]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

// followLocked returns the records linked from path, skipping deleted ones.
func (m *MemoryBackend) followLocked(path string) []*Record {
	links := m.paths[path]
	records := make([]*Record, 0, len(links))
	for _, l := range links {
		if _, ok := m.deleted[l.target]; ok {
			continue
		}
		record, ok := m.records[l.target]
		if !ok {
			continue
		}
		copied := *record
		records = append(records, &copied)
	}
	return records
}
