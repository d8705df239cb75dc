// Package api provides the HTTP command surface of reconkit. It exposes the
// host scan, port scan and capture engines as REST endpoints and streams
// their events over a WebSocket.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	apihandlers "github.com/anstrom/reconkit/internal/api/handlers"
	"github.com/anstrom/reconkit/internal/api/middleware"
	"github.com/anstrom/reconkit/internal/config"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/metrics"
)

// Server timeout constants.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 1 << 20
)

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	config     *config.Config
	handlers   *apihandlers.HandlerManager
	logger     *slog.Logger
	metrics    *metrics.PrometheusMetrics
}

// New creates a new API server instance. Every engine in engines is required.
func New(
	cfg *config.Config,
	engines apihandlers.Engines,
	hub *events.Hub,
	logger *logging.Logger,
	m *metrics.PrometheusMetrics,
) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if engines.Hosts == nil || engines.Ports == nil || engines.Capture == nil {
		return nil, fmt.Errorf("host scan, port scan and capture engines are required")
	}
	if hub == nil {
		return nil, fmt.Errorf("event hub is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	log := logger.WithComponent("api").Logger

	server := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		handlers: apihandlers.New(engines, hub, log),
		logger:   log,
		metrics:  m,
	}

	server.setupMiddleware()
	server.setupRoutes()
	server.handler = server.router
	if cfg.API.CORS.Enabled {
		// CORS wraps the router so preflight requests are answered before
		// method matching rejects them.
		server.handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.API.CORS.AllowedOrigins),
			handlers.AllowedMethods(cfg.API.CORS.AllowedMethods),
			handlers.AllowedHeaders(cfg.API.CORS.AllowedHeaders),
		)(server.router)
	}

	server.httpServer = &http.Server{
		Addr:              cfg.GetAPIAddress(),
		Handler:           server.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	return server, nil
}

// Start serves until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled or the server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Starting API server", "address", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the API server and disconnects event stream clients.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.API.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	// Hijacked WebSocket connections are not tracked by Shutdown.
	s.handlers.CloseStreams()
	if err != nil {
		s.logger.Error("API server shutdown error", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("API server stopped successfully")
	return nil
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	hm := s.handlers

	s.router.MethodNotAllowedHandler = middleware.MethodNotAllowed()
	s.router.NotFoundHandler = middleware.NotFound()

	api := s.router.PathPrefix("/api/v1").Subrouter()
	// A method mismatch inside the subrouter is otherwise reported as a 404.
	api.MethodNotAllowedHandler = middleware.MethodNotAllowed()
	api.Use(
		middleware.RequestTimeout(s.config.API.RequestTimeout),
		middleware.BodyLimit(s.config.API.MaxRequestSize),
		middleware.ContentType(),
	)

	// Health and status endpoints
	api.HandleFunc("/liveness", hm.Liveness).Methods("GET")
	api.HandleFunc("/health", hm.Health).Methods("GET")
	api.HandleFunc("/version", hm.Version).Methods("GET")

	// Host scan
	api.HandleFunc("/ip-scan/start", hm.StartHostScan).Methods("POST")
	api.HandleFunc("/ip-scan/stop", hm.StopHostScan).Methods("POST")
	api.HandleFunc("/ip-scan/status", hm.HostScanStatus).Methods("GET")

	// Port scan
	api.HandleFunc("/port-scan/start", hm.StartPortScan).Methods("POST")
	api.HandleFunc("/port-scan/stop", hm.StopPortScan).Methods("POST")
	api.HandleFunc("/port-scan/status", hm.PortScanStatus).Methods("GET")

	// Capture
	api.HandleFunc("/capture/interfaces", hm.ListInterfaces).Methods("GET")
	api.HandleFunc("/capture/start", hm.StartCapture).Methods("POST")
	api.HandleFunc("/capture/stop", hm.StopCapture).Methods("POST")
	api.HandleFunc("/capture/status", hm.CaptureStatus).Methods("GET")

	// Event stream; outside /api/v1 so the request timeout does not cut it off.
	s.router.HandleFunc("/ws/events", hm.Events).Methods("GET")

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/", s.index).Methods("GET")
}

// setupMiddleware configures middleware for the API server.
func (s *Server) setupMiddleware() {
	s.router.Use(
		middleware.Logging(s.logger),
		middleware.Recovery(s.logger),
		middleware.Metrics(s.metrics),
		middleware.SecurityHeaders(),
	)
}

// index returns API information for root requests.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service": "reconkit API",
		"version": "v1",
		"endpoints": map[string]string{
			"liveness":  "/api/v1/liveness",
			"health":    "/api/v1/health",
			"ip_scan":   "/api/v1/ip-scan/{start,stop,status}",
			"port_scan": "/api/v1/port-scan/{start,stop,status}",
			"capture":   "/api/v1/capture/{interfaces,start,stop,status}",
			"events":    "/ws/events?topics=ip_scan,port_scan,capture",
			"metrics":   "/metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode API index response", "error", err)
	}
}

// Handler returns the complete HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetAddress returns the server address.
func (s *Server) GetAddress() string {
	return s.httpServer.Addr
}
