// Package store caches scraped province/constituency snapshots.
//
// Three backends share the Store interface: an in-process map, a SQLite file
// (modernc.org/sqlite, no cgo) and Redis. Stores never expire entries
// themselves; freshness is judged by the caller with Snapshot.Stale so that an
// old snapshot can still be served when a refresh fails.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when nothing has been stored yet.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one scrape of the province -> constituencies mapping.
type Snapshot struct {
	Provinces map[string][]string `json:"provinces"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Store persists the latest snapshot.
type Store interface {
	Get(ctx context.Context) (*Snapshot, error)
	Put(ctx context.Context, snap *Snapshot) error
	Close() error
}

// Options selects a backend. Only the fields of the chosen backend are read.
type Options struct {
	Backend       string // memory, sqlite, redis
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Open creates the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(opts.SQLitePath)
	case "redis":
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisKey)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Stale reports whether the snapshot is older than ttl at now.
func (s *Snapshot) Stale(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.FetchedAt) > ttl
}

// ProvinceNames returns the provinces sorted ascending.
func (s *Snapshot) ProvinceNames() []string {
	names := make([]string, 0, len(s.Provinces))
	for p := range s.Provinces {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// All returns every constituency across provinces, sorted ascending.
func (s *Snapshot) All() []string {
	var all []string
	for _, cs := range s.Provinces {
		all = append(all, cs...)
	}
	sort.Strings(all)
	return all
}

// Constituencies returns the constituencies of one province in scrape order.
func (s *Snapshot) Constituencies(province string) ([]string, bool) {
	cs, ok := s.Provinces[province]
	return cs, ok
}

// FindProvince returns the province a constituency belongs to, comparing
// names case-insensitively. Provinces are searched in sorted order so the
// answer is deterministic if a name appears twice.
func (s *Snapshot) FindProvince(constituency string) (string, bool) {
	for _, p := range s.ProvinceNames() {
		for _, c := range s.Provinces[p] {
			if strings.EqualFold(c, constituency) {
				return p, true
			}
		}
	}
	return "", false
}

// clone deep-copies the snapshot.
func (s *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		Provinces: make(map[string][]string, len(s.Provinces)),
		FetchedAt: s.FetchedAt,
	}
	for p, cs := range s.Provinces {
		out.Provinces[p] = append([]string(nil), cs...)
	}
	return out
}
