package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"constituencies/internal/logging"
	"constituencies/internal/store"

	"golang.org/x/sync/singleflight"
)

// Scraper produces a fresh province -> constituencies mapping.
type Scraper interface {
	Scrape(ctx context.Context) (map[string][]string, error)
}

// ErrUnavailable is returned when there is no snapshot and scraping failed.
var ErrUnavailable = errors.New("constituency data unavailable")

// Loader serves snapshots from the store and refreshes them by scraping when
// they are missing or older than the TTL. Concurrent refreshes are collapsed.
type Loader struct {
	store   store.Store
	scraper Scraper
	ttl     time.Duration
	metrics *Metrics
	now     func() time.Time
	group   singleflight.Group
}

// NewLoader creates a loader. metrics may be nil.
func NewLoader(st store.Store, sc Scraper, ttl time.Duration, metrics *Metrics) *Loader {
	return &Loader{
		store:   st,
		scraper: sc,
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

// Load returns the current snapshot. A stale snapshot is served when a refresh
// fails; with nothing cached the refresh error is returned wrapped in
// ErrUnavailable.
func (l *Loader) Load(ctx context.Context) (*store.Snapshot, error) {
	log := logging.Get(logging.CategoryServer)

	cached, err := l.store.Get(ctx)
	switch {
	case err == nil && !cached.Stale(l.ttl, l.now()):
		l.metrics.cacheHit()
		return cached, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		// A broken cache should not take the API down; fall through to scraping.
		log.Warn("snapshot store read failed: %v", err)
		cached = nil
	}
	l.metrics.cacheMiss()

	snap, err := l.shared(ctx)
	if err == nil {
		return snap, nil
	}

	if cached != nil {
		log.Warn("refresh failed, serving snapshot from %s: %v", cached.FetchedAt.Format(time.RFC3339), err)
		return cached, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Refresh scrapes unconditionally and stores the result.
func (l *Loader) Refresh(ctx context.Context) (*store.Snapshot, error) {
	return l.shared(ctx)
}

// shared joins the in-flight refresh or starts one. The refresh runs on a
// context detached from ctx, since other callers may be waiting on it; the
// scraper's own timeout bounds it. ctx only limits how long this caller waits.
func (l *Loader) shared(ctx context.Context) (*store.Snapshot, error) {
	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan("refresh", func() (interface{}, error) {
		return l.refresh(detached)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*store.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) refresh(ctx context.Context) (*store.Snapshot, error) {
	data, err := l.scraper.Scrape(ctx)
	if err != nil {
		l.metrics.scrape("error")
		return nil, err
	}
	l.metrics.scrape("ok")

	snap := &store.Snapshot{Provinces: data, FetchedAt: l.now()}
	if err := l.store.Put(ctx, snap); err != nil {
		logging.Get(logging.CategoryServer).Warn("snapshot store write failed: %v", err)
	}
	return snap, nil
}
