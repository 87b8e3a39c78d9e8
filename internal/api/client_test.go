package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/api/", WithHTTPClient(ts.Client()), WithTimeout(2*time.Second)), ts
}

func TestProvinces_Success(t *testing.T) {
	var gotPath, gotAccept string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, `["Lusaka","Central","Copperbelt"]`)
	})

	res := c.Provinces(context.Background())

	require.Equal(t, KindSuccess, res.Kind)
	if diff := cmp.Diff([]string{"Lusaka", "Central", "Copperbelt"}, res.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "/api/provinces", gotPath)
	assert.Equal(t, "application/json", gotAccept)
}

func TestProvinces_EmptyList(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	res := c.Provinces(context.Background())
	assert.Equal(t, KindEmpty, res.Kind)
	assert.Nil(t, res.Err)
}

func TestProvinces_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail":"scrape failed"}`)
	})

	res := c.Provinces(context.Background())

	require.Equal(t, KindFailure, res.Kind)
	var se *StatusError
	require.True(t, errors.As(res.Err, &se))
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, "HTTP 500: scrape failed", se.Error())
}

func TestProvinces_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(url, WithTimeout(time.Second))
	res := c.Provinces(context.Background())
	assert.Equal(t, KindFailure, res.Kind)
	assert.Error(t, res.Err)
}

func TestProvinces_UndecodableBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"provinces":["a"]}`)
	})

	res := c.Provinces(context.Background())
	assert.Equal(t, KindFailure, res.Kind)
}

func TestConstituencies_BothShapesNormalize(t *testing.T) {
	names := []string{"Nakawa", "Kampala Central", "Makindye"}

	tests := []struct {
		name string
		body string
	}{
		{"bare list", `["Nakawa","Kampala Central","Makindye"]`},
		{"wrapper", `{"province":"Central","constituencies":["Nakawa","Kampala Central","Makindye"]}`},
		{"wrapper with numeric province", `{"province":5,"constituencies":["Nakawa","Kampala Central","Makindye"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			res := c.Constituencies(context.Background(), "Central")
			require.Equal(t, KindSuccess, res.Kind)
			if diff := cmp.Diff(names, res.Items); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConstituencies_EmptyShapes(t *testing.T) {
	for _, body := range []string{`[]`, `null`, `{}`, `{"constituencies":null}`, `{"constituencies":[]}`} {
		t.Run(body, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})
			res := c.Constituencies(context.Background(), "Lusaka")
			assert.Equal(t, KindEmpty, res.Kind)
		})
	}
}

func TestConstituencies_EscapesProvince(t *testing.T) {
	var rawPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		fmt.Fprint(w, `["Mwinilunga"]`)
	})

	res := c.Constituencies(context.Background(), "North Western/Upper")
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "/api/constituencies/North%20Western%2FUpper", rawPath)
}

func TestConstituencies_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"Province not found"}`)
	})

	res := c.Constituencies(context.Background(), "Atlantis")
	require.Equal(t, KindFailure, res.Kind)
	assert.True(t, errors.Is(res.Err, ErrNotFound))
}

func TestClient_TimeoutBoundsRequest(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c.timeout = 50 * time.Millisecond

	start := time.Now()
	res := c.Provinces(context.Background())
	assert.Equal(t, KindFailure, res.Kind)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "no retry")
}

func TestLookupProvince(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/constituency/Kabwata" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"Constituency not found"}`)
			return
		}
		fmt.Fprint(w, `{"constituency":"Kabwata","province":"Lusaka"}`)
	})

	m, err := c.LookupProvince(context.Background(), "Kabwata")
	require.NoError(t, err)
	assert.Equal(t, Match{Constituency: "Kabwata", Province: "Lusaka"}, m)

	_, err = c.LookupProvince(context.Background(), "Nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Constituency not found")
}

func TestAllConstituencies(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/constituencies", r.URL.Path)
		fmt.Fprint(w, `["A","B"]`)
	})

	res := c.AllConstituencies(context.Background())
	assert.Equal(t, KindSuccess, res.Kind)
	assert.Len(t, res.Items, 2)
}
