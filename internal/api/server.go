package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"solarnode/internal/config"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"go.uber.org/zap"
)

// Server is the credential-issuing API fronting the node. It authenticates
// itself to the node with the shared API token and serves account and
// transfer operations to external callers
type Server struct {
	logger *zap.SugaredLogger
	config *config.Config

	algod   *algod.Client
	metrics *Metrics
	limiter *ipRateLimiter

	// workers caps concurrently handled requests at the configured pool size
	workers chan struct{}

	httpServer *http.Server
}

// NewServer creates the credential API server. The token is the node API
// token materialized into the data directory
func NewServer(logger *zap.SugaredLogger, cfg *config.Config, token string, metrics *Metrics) (*Server, error) {
	client, err := algod.MakeClient("http://"+cfg.Node.EndpointAddr, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create node API client: %w", err)
	}

	if metrics == nil {
		metrics = NilMetrics()
	}

	workers := cfg.API.Workers
	if workers < 1 {
		// a zero-capacity pool would block every request forever
		workers = 1
	}

	return &Server{
		logger:  logger.Named("api"),
		config:  cfg,
		algod:   client,
		metrics: metrics,
		limiter: newIPRateLimiter(cfg.API.RateLimit, cfg.API.RateWindow),
		workers: make(chan struct{}, workers),
	}, nil
}

// Start runs the HTTP server until Stop is called or the listener fails.
// Access and error events go to the standard streams through the logger so
// the supervisor's log capture sees everything
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/account/new", s.wrap(http.MethodPost, "account_new", s.handleCreateAccount))
	mux.HandleFunc("/api/account/balance", s.wrap(http.MethodPost, "account_balance", s.handleBalance))
	mux.HandleFunc("/api/transfer", s.wrap(http.MethodPost, "transfer", s.handleTransfer))
	mux.HandleFunc("/health", s.wrap(http.MethodGet, "health", s.handleHealth))

	addr := fmt.Sprintf("%s:%d", s.config.API.Host, s.config.API.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
	}

	s.logger.Infow("Starting credential API server",
		"addr", addr,
		"workers", s.config.API.Workers,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop shuts the HTTP server down gracefully
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorw("Error shutting down API server", "err", err)
	}
}

// wrap applies the shared request pipeline: method check, per-IP rate
// limiting, worker-slot acquisition, request metrics
func (s *Server) wrap(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

			return
		}

		clientIP := clientIP(r)
		if !s.limiter.Allow(clientIP) {
			s.logger.Warnw("Rate limit exceeded", "client", clientIP, "endpoint", endpoint)
			s.metrics.RateLimited.Add(1)
			s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded"})

			return
		}

		// one slow request must not block the rest of the pool, but the
		// pool size is a hard cap: excess requests queue here
		select {
		case s.workers <- struct{}{}:
			defer func() { <-s.workers }()
		case <-r.Context().Done():
			return
		}

		s.metrics.Requests.With("endpoint", endpoint).Add(1)
		handler(w, r)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorw("Failed to write response", "err", err)
	}
}

// clientIP extracts the caller address used for rate limiting
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
