package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Provinces: map[string][]string{
			"Lusaka":     {"Kabwata", "Munali", "Chilanga"},
			"Copperbelt": {"Nkana", "Kantanshi"},
			"Central":    {"Chibombo"},
		},
		FetchedAt: time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC),
	}
}

// backends returns every store that can run in this environment.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemory()}

	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "snap.db"))
	require.NoError(t, err)
	out["sqlite"] = sq

	if addr := os.Getenv("REDIS_TEST_ADDR"); addr != "" {
		r, err := OpenRedis(context.Background(), addr, "", 15, "constituencies:test:"+t.Name())
		require.NoError(t, err)
		out["redis"] = r
	}

	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStore_EmptyGetIsNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if r, ok := s.(*Redis); ok {
				r.client.Del(context.Background(), r.key)
			}
			_, err := s.Get(context.Background())
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleSnapshot()
			require.NoError(t, s.Put(ctx, want))

			got, err := s.Get(ctx)
			require.NoError(t, err)
			assert.True(t, want.FetchedAt.Equal(got.FetchedAt), "fetched_at %v != %v", got.FetchedAt, want.FetchedAt)
			if diff := cmp.Diff(want.Provinces, got.Provinces); diff != "" {
				t.Errorf("provinces mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, sampleSnapshot()))

			next := &Snapshot{
				Provinces: map[string][]string{"Muchinga": {"Chinsali"}},
				FetchedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			}
			require.NoError(t, s.Put(ctx, next))

			got, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, next.Provinces, got.Provinces)
		})
	}
}

func TestMemory_IsolatesCallers(t *testing.T) {
	m := NewMemory()
	snap := sampleSnapshot()
	require.NoError(t, m.Put(context.Background(), snap))

	snap.Provinces["Lusaka"][0] = "mutated"
	got, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Kabwata", got.Provinces["Lusaka"][0])

	got.Provinces["Lusaka"][0] = "mutated again"
	again, _ := m.Get(context.Background())
	assert.Equal(t, "Kabwata", again.Provinces["Lusaka"][0])
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), sampleSnapshot()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kabwata", "Munali", "Chilanga"}, got.Provinces["Lusaka"], "scrape order kept")
	assert.Equal(t, path, s.Path())
}

func TestSQLite_KeepsProvinceWithoutConstituencies(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	snap := sampleSnapshot()
	snap.Provinces["Muchinga"] = []string{}
	require.NoError(t, s.Put(context.Background(), snap))

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	cs, ok := got.Constituencies("Muchinga")
	assert.True(t, ok)
	assert.Empty(t, cs)
	assert.Equal(t, []string{"Central", "Copperbelt", "Lusaka", "Muchinga"}, got.ProvinceNames())
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(context.Background(), Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), Options{Backend: "etcd"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Options{Backend: "sqlite"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Options{Backend: "redis"})
	assert.Error(t, err)
}

func TestSnapshotQueries(t *testing.T) {
	snap := sampleSnapshot()

	assert.Equal(t, []string{"Central", "Copperbelt", "Lusaka"}, snap.ProvinceNames())
	assert.Equal(t, []string{"Chibombo", "Chilanga", "Kabwata", "Kantanshi", "Munali", "Nkana"}, snap.All())

	cs, ok := snap.Constituencies("Copperbelt")
	assert.True(t, ok)
	assert.Equal(t, []string{"Nkana", "Kantanshi"}, cs)
	_, ok = snap.Constituencies("copperbelt")
	assert.False(t, ok, "province lookup is exact")

	p, ok := snap.FindProvince("mUnAlI")
	assert.True(t, ok)
	assert.Equal(t, "Lusaka", p)
	_, ok = snap.FindProvince("Atlantis")
	assert.False(t, ok)
}

func TestSnapshotStale(t *testing.T) {
	snap := sampleSnapshot()
	assert.False(t, snap.Stale(time.Hour, snap.FetchedAt.Add(59*time.Minute)))
	assert.True(t, snap.Stale(time.Hour, snap.FetchedAt.Add(61*time.Minute)))
}
