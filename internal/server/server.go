// Package server serves the constituencies JSON API from scraped snapshots.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"constituencies/internal/logging"
	"constituencies/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ConstituencyResponse is the body of GET /api/constituencies/{province}.
type ConstituencyResponse struct {
	Province       string   `json:"province"`
	Constituencies []string `json:"constituencies"`
}

// ProvinceConstituencyResponse is the body of GET /api/constituency/{name}.
type ProvinceConstituencyResponse struct {
	Constituency string `json:"constituency"`
	Province     string `json:"province"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Server is the HTTP API.
type Server struct {
	loader  *Loader
	logger  *zap.Logger
	metrics *Metrics
	router  http.Handler
}

// New builds the server. logger and metrics may be nil.
func New(loader *Loader, logger *zap.Logger, metrics *Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{loader: loader, logger: logger, metrics: metrics}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(accessLog(s.logger, s.metrics))
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/provinces", s.provincesHandler)
		r.Get("/constituencies", s.allConstituenciesHandler)
		r.Get("/constituencies/{province}", s.constituenciesHandler)
		r.Get("/constituency/{name}", s.lookupHandler)
	})

	return r
}

func (s *Server) provincesHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.ProvinceNames())
}

func (s *Server) allConstituenciesHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	all := snap.All()
	if all == nil {
		all = []string{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) constituenciesHandler(w http.ResponseWriter, r *http.Request) {
	province, err := pathParam(r, "province")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Invalid province"})
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	cs, found := snap.Constituencies(province)
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "Province not found"})
		return
	}
	if cs == nil {
		cs = []string{}
	}
	writeJSON(w, http.StatusOK, ConstituencyResponse{Province: province, Constituencies: cs})
}

func (s *Server) lookupHandler(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Invalid constituency"})
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	province, found := snap.FindProvince(name)
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "Constituency not found"})
		return
	}
	writeJSON(w, http.StatusOK, ProvinceConstituencyResponse{Constituency: name, Province: province})
}

// load fetches the snapshot or writes a 503.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*store.Snapshot, bool) {
	snap, err := s.loader.Load(r.Context())
	if err != nil {
		logging.WithRequestID(logging.CategoryServer, RequestID(r.Context())).Error("load failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Detail: "Constituency data is temporarily unavailable"})
		return nil, false
	}
	return snap, true
}

// pathParam returns a decoded URL parameter. chi matches on the raw path when
// the request has escaped slashes, so the value may still be escaped.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get(logging.CategoryServer).Error("encode JSON response: %v", err)
	}
}

// Run serves on addr until ctx is cancelled. When warm is true the snapshot
// is loaded once in the background so the first request does not scrape.
func (s *Server) Run(ctx context.Context, addr string, warm bool) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, warm)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, warm bool) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("serving constituencies API", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if warm {
		g.Go(func() error {
			if _, err := s.loader.Load(gctx); err != nil {
				// Not fatal: requests will retry the load.
				s.logger.Warn("snapshot warm-up failed", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}
