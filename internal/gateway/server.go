// Package gateway exposes the assistant over HTTP: a JSON ask endpoint, a
// WebSocket chat endpoint, and a health probe. Faults inside a turn never
// surface as HTTP errors; they arrive as answer text like every other reply.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"creditdesk/internal/domain"
)

// ErrInvalidPort is returned when gateway port is not in 0..65535.
var ErrInvalidPort = errors.New("gateway port must be 0-65535")

// TurnHandler is the interface used by the gateway to run turns.
// Implementations (e.g. session.Manager) serialize per-session internally.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID, text string) (string, error)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server is the HTTP server for the assistant. It optionally enforces Bearer
// token auth and restricts CORS to the configured origins.
type Server struct {
	cfg         *domain.GatewayConfig
	turns       TurnHandler
	health      HealthChecker // optional; nil reports "degraded" store status
	logger      *slog.Logger
	server      *http.Server
	addr        string
	addrMu      sync.RWMutex
	listenErr   error
	listenErrMu sync.Mutex
	listener    net.Listener
}

// NewServer builds a gateway server from config. Port 0 means pick a random
// port. turns must not be nil; health may be nil when no task store is
// configured. Returns ErrInvalidPort if port is not in 0..65535.
func NewServer(cfg *domain.GatewayConfig, turns TurnHandler, health HealthChecker, logger *slog.Logger) (*Server, error) {
	if turns == nil {
		panic("gateway: turn handler must not be nil")
	}
	if cfg == nil {
		cfg = &domain.GatewayConfig{Port: 8080}
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, ErrInvalidPort
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, turns: turns, health: health, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	corsMW := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	handler := corsMW.Handler(BearerAuth(cfg.Auth.AuthToken)(r))

	s.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func allowedOrigins(cfg *domain.GatewayConfig) []string {
	if len(cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.AllowedOrigins
}

// askRequest is the body of POST /ask.
type askRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// askResponse is the reply to POST /ask. Answer is always non-empty on 200.
type askResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId"`
}

// handleAsk runs one turn and replies 200 with the answer. The only non-200
// outcomes are malformed request bodies and client disconnects; turn-level
// faults are already answer text by the time they reach here.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message must not be empty"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "default"
	}

	answer, err := s.turns.HandleTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		// Only queue cancellation lands here, i.e. the client went away.
		s.logger.Warn("turn aborted", "session", sessionID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request cancelled"})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer, SessionID: sessionID})
}

// healthResponse is the reply to GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: "ok"}
	if s.health == nil {
		resp.Store = "not configured"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Health(ctx); err != nil {
			resp.Status = "degraded"
			resp.Store = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Addr returns the bound address (e.g. "127.0.0.1:8080") after Run has
// started. Empty before Run.
func (s *Server) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// ListenErr returns the error from the initial Listen in Run(), if any. Used
// when Addr() is still empty after Run() has been started.
func (s *Server) ListenErr() error {
	s.listenErrMu.Lock()
	defer s.listenErrMu.Unlock()
	return s.listenErr
}

// Handler returns the full HTTP handler (CORS + BearerAuth + routes). For
// testing without binding a port.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// netListen is the function used to listen; tests may replace it to force
// Listen errors.
var netListen = func(network, address string) (net.Listener, error) {
	return net.Listen(network, address)
}

// Run listens on the configured port and serves until shutdown is closed.
// Returns nil when shut down cleanly.
func (s *Server) Run(shutdown <-chan struct{}) error {
	addr := ":" + strconv.Itoa(s.cfg.Port)
	ln, err := netListen("tcp", addr)
	if err != nil {
		s.listenErrMu.Lock()
		s.listenErr = err
		s.listenErrMu.Unlock()
		return err
	}
	s.addrMu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()

	s.logger.Info("gateway listening", "addr", s.addr)

	done := make(chan error, 1)
	go func() {
		done <- s.server.Serve(ln)
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := serverShutdown(s.server, ctx); err != nil {
		return err
	}
	<-done
	return nil
}

// serverShutdown is the function used to shut down the server; tests may
// replace it.
var serverShutdown = func(srv *http.Server, ctx context.Context) error {
	return srv.Shutdown(ctx)
}
