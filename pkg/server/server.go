// Package server exposes edgescript's script-tree engine over HTTP: POST a
// wire.Request, get back the merged result tree of spec §4.7/§6.
//
// Each request is served by a fresh datamanager.DM over the shared store
// (spec §4.4's "shared store pool" design note) and committed once the
// script tree finishes executing, so a request is the unit of a session:
// there is no cross-request buffered state.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orneryd/edgescript/pkg/auth"
	"github.com/orneryd/edgescript/pkg/config"
	"github.com/orneryd/edgescript/pkg/datamanager"
	"github.com/orneryd/edgescript/pkg/script"
	"github.com/orneryd/edgescript/pkg/storage"
	"github.com/orneryd/edgescript/pkg/wire"
)

// Server is the HTTP front end over one shared storage.Store.
type Server struct {
	cfg   *config.Config
	store *storage.Store

	listener   net.Listener
	httpServer *http.Server
	started    time.Time

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// New wires an HTTP server over store using cfg for auth and listen
// settings.
func New(cfg *config.Config, store *storage.Store) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg == nil {
		cfg = config.LoadFromEnv()
	}
	return &Server{cfg: cfg, store: store}, nil
}

// Start begins listening and serving in the background. It returns once the
// listener is bound; call Stop to shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Address, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.started = time.Now()

	s.httpServer = &http.Server{
		Handler:      s.buildRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("edgescript: http server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) buildRouter() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/execute", s.handleExecute)
	return s.recoveryMiddleware(s.loggingMiddleware(mux))
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				log.Printf("edgescript: panic: %v\n%s", err, buf[:n])
				s.errorCount.Add(1)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requestCount.Add(1)
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.cfg.Logging.Verbose {
			log.Printf("edgescript: %s %s %s", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

// handleExecute decodes a wire.Request, authorizes it from the request's
// headers, runs the script tree against a fresh per-request DM, commits,
// and returns the merged result tree.
//
// Credentials: "Authorization: Bearer <token>" matching cfg.Auth.RootToken
// grants Root; otherwise the request body's Paper field paired with the
// "X-Edgescript-Pen" header selects Writer(paper, pen), or Printer(pen)
// when only Pen is set (spec §5, §6).
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req wire.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := authorize(r, req, s.cfg)
	if err != nil {
		s.errorCount.Add(1)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	dm := datamanager.New(s.store, a)
	ctx := r.Context()
	result, err := script.Execute(ctx, dm, req.Script)
	if err != nil {
		s.errorCount.Add(1)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := dm.Commit(ctx); err != nil {
		s.errorCount.Add(1)
		writeError(w, http.StatusInternalServerError, "commit: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// authorize builds the request's Auth from its bearer token and the
// (paper, pen) pair: the root token grants Root; otherwise req.Paper
// (spec §6's wire.Request.Paper — the paper this request writes into)
// paired with the "X-Edgescript-Pen" header identity grants Writer(paper,
// pen); a pen alone grants Printer(pen).
func authorize(r *http.Request, req wire.Request, cfg *config.Config) (auth.Auth, error) {
	if tok := bearerToken(r); tok != "" && cfg.Auth.RootToken != "" && tok == cfg.Auth.RootToken {
		return auth.NewRoot(), nil
	}

	pen := r.Header.Get("X-Edgescript-Pen")
	switch {
	case req.Paper != "" && pen != "":
		return auth.NewWriter(req.Paper, pen)
	case pen != "":
		return auth.NewPrinter(pen)
	default:
		return auth.Auth{}, fmt.Errorf("no credentials supplied")
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(h, prefix) {
		return strings.TrimPrefix(h, prefix)
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
