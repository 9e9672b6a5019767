// Package gateway exposes the HTTP ingest surface: envelope dispatch
// and the WebSocket endpoint feeding the topic registry.
package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/metric"
	"github.com/SINTEF/sensapp-sub001/senml"
	"github.com/SINTEF/sensapp-sub001/topics"
)

// Dispatcher routes one envelope and reports unroutable sensor ids.
type Dispatcher interface {
	Dispatch(ctx context.Context, env *senml.Envelope) ([]string, error)
}

// dispatchResponse is the success body of POST /dispatch.
type dispatchResponse struct {
	Ignored []string `json:"ignored"`
}

// errorResponse is the error body for client failures.
type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status"`
}

// Server is the ingest gateway.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	topics     *topics.Registry
	logger     *slog.Logger
	metrics    *metric.Metrics
	limiter    *rate.Limiter

	server  *http.Server
	running atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the gateway logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exports ingest counters.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// NewServer creates the gateway. topicRegistry may be nil when the
// WebSocket endpoint is not served.
func NewServer(cfg Config, dispatcher Dispatcher, topicRegistry *topics.Registry, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		topics:     topicRegistry,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/dispatch", s.handleDispatch)
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.topics != nil {
		mux.HandleFunc("/ws", s.handleWebSocket)
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s, nil
}

// Start begins serving. It returns once the listener is running; serve
// errors after startup are logged.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start", "check running state")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.running.Store(false)
		return errors.WrapFatal(err, "Server", "Start", "listen")
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		_ = s.server.Close()
		s.running.Store(false)
		return errors.WrapTransient(ctx.Err(), "Server", "Start", "startup cancelled")
	}

	s.logger.Info("gateway listening", "addr", s.cfg.Addr)
	return nil
}

// Stop shuts the server down gracefully within timeout.
func (s *Server) Stop(timeout time.Duration) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.topics != nil {
		s.topics.Close()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Server", "Stop", "shutdown")
	}
	return nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	w.Header().Set("X-Request-ID", requestID)

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "", fmt.Sprintf("method %s not allowed", r.Method))
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "", "rate limit exceeded")
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxRequestSize+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "", "failed to read request body")
		return
	}
	if int64(len(body)) > s.cfg.MaxRequestSize {
		s.writeError(w, http.StatusRequestEntityTooLarge, "",
			fmt.Sprintf("request body exceeds maximum size of %d bytes", s.cfg.MaxRequestSize))
		return
	}

	env, encoding, err := decodeEnvelope(r.Header.Get("Content-Type"), body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.EnvelopesReceived.WithLabelValues(encoding).Inc()
	}

	ignored, err := s.dispatcher.Dispatch(r.Context(), env)
	if err != nil {
		var verr *senml.ValidationError
		if stderrors.As(err, &verr) {
			s.writeError(w, http.StatusBadRequest, string(verr.Code), verr.Error())
			return
		}
		s.logger.Error("dispatch failed",
			"request_id", requestID,
			"error", err)
		s.writeError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, dispatchResponse{Ignored: ignored})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// decodeEnvelope picks the codec from the Content-Type. JSON is the
// default; XML is selected by an xml media subtype.
func decodeEnvelope(contentType string, body []byte) (*senml.Envelope, string, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	if strings.HasSuffix(mediaType, "xml") {
		env, err := senml.DecodeXML(body)
		if err != nil {
			return nil, "xml", fmt.Errorf("malformed XML envelope: %w", err)
		}
		return env, "xml", nil
	}

	env, err := senml.DecodeJSON(body)
	if err != nil {
		return nil, "json", fmt.Errorf("malformed JSON envelope: %w", err)
	}
	return env, "json", nil
}

// requestIDFor propagates the caller's request id or mints one.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{
		Error:  message,
		Code:   code,
		Status: status,
	})
}
