// Package provider exposes a record cache runner over HTTP in the shape
// the shell expects: provider info, the full cached dataset, health and
// status probes, and a manual refresh trigger.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"

	"github.com/sashell/go-libsap/apierror"
	"github.com/sashell/go-libsap/rcache"
)

var log = logging.Logger("provider")

// Server serves a runner's cache over HTTP. Create it with New, bind and
// serve with Start, tear down with Close.
type Server struct {
	info   Info
	runner *rcache.Runner
	cfg    config

	hserver  *http.Server
	listener net.Listener
}

// New creates a provider server around an existing runner. The runner is
// started by Start and stopped by Close; it does not need to be running
// beforehand.
func New(info Info, runner *rcache.Runner, options ...Option) (*Server, error) {
	cfg, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, errors.New("no runner")
	}
	if info.Version == "" {
		info.Version = defaultVersion
	}
	if info.Mode == "" {
		info.Mode = ModeAllAtOnce
	}
	return &Server{
		info:   info,
		runner: runner,
		cfg:    cfg,
	}, nil
}

// Start binds the listener, starts the runner, optionally waits for the
// first successful fetch, registers the provider URL, and begins serving
// in the background.
func (s *Server) Start() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = listener

	if s.cfg.requireInitial {
		// Subscribe before starting so the immediate first cycle cannot
		// be missed.
		events, cancel := s.runner.OnRefreshDone()
		s.runner.Start()
		s.waitInitialFetch(events)
		cancel()
	} else {
		s.runner.Start()
	}

	if s.cfg.sink != nil {
		if err = s.cfg.sink.Register(s.URL()); err != nil {
			listener.Close()
			return fmt.Errorf("cannot register provider: %w", err)
		}
	}

	s.hserver = &http.Server{
		Handler: s.routes(),
	}
	go func() {
		serr := s.hserver.Serve(listener)
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			log.Errorw("Provider server stopped", "err", serr)
		}
	}()

	log.Infow("Provider serving", "name", s.info.Name, "addr", listener.Addr().String())
	return nil
}

// Close shuts down the HTTP server and stops the runner loop.
func (s *Server) Close() error {
	var errs error
	if s.hserver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.stopTimeout)
		defer cancel()
		if err := s.hserver.Shutdown(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if !s.runner.Stop(s.cfg.stopTimeout) {
		errs = multierror.Append(errs, errors.New("timed out waiting for runner to stop"))
	}
	return errs
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the provider URL as registered with the shell, or an empty
// string before Start. The host is always localhost so registry entries
// stay reachable from the shell regardless of the bind address.
func (s *Server) URL() string {
	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", addr.Port)
}

// listen binds the configured address, walking forward through ports when
// auto-port is enabled.
func (s *Server) listen() (net.Listener, error) {
	host, portStr, err := net.SplitHostPort(s.cfg.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("bad listen address %q: %w", s.cfg.listenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("bad listen port %q: %w", portStr, err)
	}

	attempts := 1
	if s.cfg.autoPort && port != 0 {
		attempts = 21
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		listener, lerr := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port+i)))
		if lerr == nil {
			return listener, nil
		}
		lastErr = lerr
	}
	return nil, lastErr
}

// waitInitialFetch blocks until a cycle succeeds or the initial-fetch
// timeout elapses. Timing out is not fatal; the provider serves whatever
// it has.
func (s *Server) waitInitialFetch(events <-chan rcache.RefreshDone) {
	// The runner may have been running before Start and fetched already.
	if st := s.runner.Status(); !st.LastCompletedAt.IsZero() && st.LastError == "" {
		return
	}
	deadline := time.NewTimer(s.cfg.initialTimeout)
	defer deadline.Stop()
	for {
		select {
		case ev := <-events:
			if ev.Err == nil {
				return
			}
			log.Warnw("Initial fetch failed, waiting for next cycle", "err", ev.Err)
		case <-deadline.C:
			log.Warnw("Timed out waiting for initial fetch", "timeout", s.cfg.initialTimeout)
			return
		}
	}
}

func (s *Server) routes() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/", s.handleRoot)
	mux.Get("/hello", s.handleHello)
	mux.Get("/all_data", s.handleAllData)
	mux.Get("/health", s.handleHealth)
	mux.Get("/status", s.handleStatus)
	mux.Get("/refresh", s.handleRefresh)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": s.info.Name,
		"status":  "running",
		"endpoints": map[string]string{
			"/hello":    "Provider information",
			"/all_data": "All cached objects",
			"/health":   "Health probe",
			"/status":   "Runner status",
			"/refresh":  "Trigger an out-of-band refresh",
		},
	})
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

func (s *Server) handleAllData(w http.ResponseWriter, r *http.Request) {
	objects := s.runner.Cached()
	if objects == nil {
		objects = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, objects)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"count":  s.runner.Count(),
	})
}

// statusResponse is the wire form of the runner status. Timestamps are
// RFC 3339 strings, null until the first cycle.
type statusResponse struct {
	LastStartedAt       *string `json:"last_started_at"`
	LastCompletedAt     *string `json:"last_completed_at"`
	LastError           *string `json:"last_error"`
	IntervalSeconds     float64 `json:"interval_seconds"`
	FetchTimeoutSeconds float64 `json:"fetch_timeout_seconds"`
	IsRunning           bool    `json:"is_running"`
	InFlight            bool    `json:"in_flight"`
	Count               int     `json:"count"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Status()
	resp := statusResponse{
		LastStartedAt:       timeString(st.LastStartedAt),
		LastCompletedAt:     timeString(st.LastCompletedAt),
		IntervalSeconds:     st.Interval.Seconds(),
		FetchTimeoutSeconds: st.FetchTimeout.Seconds(),
		IsRunning:           st.IsRunning,
		InFlight:            st.InFlight,
		Count:               s.runner.Count(),
	}
	if st.LastError != "" {
		lastErr := st.LastError
		resp.LastError = &lastErr
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.cfg.refreshToken != "" && r.URL.Query().Get("token") != s.cfg.refreshToken {
		writeError(w, apierror.New(errors.New("unauthorized"), http.StatusUnauthorized))
		return
	}
	s.runner.RunNow(false)
	writeJSON(w, http.StatusOK, map[string]string{"status": "refresh_started"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, apierror.New(err, http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.Status())
	_, _ = w.Write(apierror.EncodeError(err))
}

func timeString(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	str := t.Format(time.RFC3339Nano)
	return &str
}
