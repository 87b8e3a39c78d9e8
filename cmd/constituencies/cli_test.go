package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"constituencies/internal/server"
	"constituencies/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticScraper map[string][]string

func (s staticScraper) Scrape(ctx context.Context) (map[string][]string, error) {
	return s, nil
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	data := staticScraper{
		"Lusaka":   {"Munali", "Kabwata", "Mandevu"},
		"Central":  {"Kabwe Central", "Chibombo"},
		"Muchinga": {},
	}
	loader := server.NewLoader(store.NewMemory(), data, time.Hour, nil)
	ts := httptest.NewServer(server.New(loader, nil, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// run executes the root command with a config path that does not exist, so
// only defaults and flags apply.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	filterTerm = ""
	apiURL = ""
	timeout = 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	full := append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProvincesCmd(t *testing.T) {
	ts := newAPI(t)
	out, err := run(t, "--api", ts.URL+"/api", "provinces")
	require.NoError(t, err)
	assert.Equal(t, "Central\nLusaka\nMuchinga\n", out)
}

func TestProvincesCmd_SortsUnsortedAPI(t *testing.T) {
	unsorted := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `["Western","Central","Lusaka"]`)
	}))
	defer unsorted.Close()

	out, err := run(t, "--api", unsorted.URL, "provinces")
	require.NoError(t, err)
	assert.Equal(t, "Central\nLusaka\nWestern\n", out)
}

func TestAllCmd(t *testing.T) {
	ts := newAPI(t)
	out, err := run(t, "--api", ts.URL+"/api", "all")
	require.NoError(t, err)
	assert.Equal(t, "Chibombo\nKabwata\nKabwe Central\nMandevu\nMunali\n", out)

	unsorted := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["Munali","Bwacha"]`)
	}))
	defer unsorted.Close()
	out, err = run(t, "--api", unsorted.URL, "all")
	require.NoError(t, err)
	assert.Equal(t, "Bwacha\nMunali\n", out)
}

func TestIsBrowse(t *testing.T) {
	assert.True(t, isBrowse(rootCmd))
	assert.True(t, isBrowse(browseCmd))
	assert.False(t, isBrowse(listCmd))
	assert.False(t, isBrowse(serveCmd))
}

func TestListCmd(t *testing.T) {
	ts := newAPI(t)

	out, err := run(t, "--api", ts.URL+"/api", "list", "Lusaka")
	require.NoError(t, err)
	assert.Equal(t, "Kabwata\nMandevu\nMunali\n", out)

	out, err = run(t, "--api", ts.URL+"/api", "list", "Lusaka", "--filter", "MA")
	require.NoError(t, err)
	assert.Equal(t, "Mandevu\n", out)

	out, err = run(t, "--api", ts.URL+"/api", "list", "Muchinga")
	require.NoError(t, err)
	assert.Equal(t, "No constituencies found.\n", out)

	_, err = run(t, "--api", ts.URL+"/api", "list", "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load data")
}

func TestListCmd_ProvincesUnavailable(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer down.Close()

	_, err := run(t, "--api", down.URL+"/api", "list", "Lusaka")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load provinces")
}

func TestLookupCmd(t *testing.T) {
	ts := newAPI(t)

	out, err := run(t, "--api", ts.URL+"/api", "lookup", "munali")
	require.NoError(t, err)
	assert.Equal(t, "munali: Lusaka\n", out)

	_, err = run(t, "--api", ts.URL+"/api", "lookup", "Nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `constituency "Nowhere" not found`)
}

func TestInvalidAPIURL(t *testing.T) {
	_, err := run(t, "--api", "not a url", "provinces")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

const scrapePage = `<html><body><div class="view-content">
<h3>Central</h3>
<table><tr><td><a href="#">Chibombo</a></td></tr><tr><td><a href="#">Kabwe Central</a></td></tr></table>
<h3>Lusaka</h3>
<table><tr><td><a href="#">Munali</a></td></tr></table>
</div></body></html>`

func TestScrapeCmd_SQLite(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, scrapePage)
	}))
	defer site.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "snap.db")
	cfgPath := filepath.Join(dir, "constituencies.yaml")
	yaml := fmt.Sprintf("server:\n  source_url: %s\nstore:\n  backend: sqlite\n  sqlite_path: %s\n", site.URL, dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	t.Setenv("CONSTITUENCIES_STORE", "")
	t.Setenv("CONSTITUENCIES_SOURCE_URL", "")
	t.Setenv("SQLITE_PATH", "")

	filterTerm, apiURL, timeout = "", "", 0
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "scrape"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Stored 2 provinces, 3 constituencies (sqlite)\n", out.String())

	st, err := store.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close()
	snap, err := st.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Central", "Lusaka"}, snap.ProvinceNames())
}
