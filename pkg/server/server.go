// Package server exposes the engine over HTTP: JSON endpoints for chatbot
// turns and SEO metadata, and a WebSocket endpoint for live chat widgets.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/engine"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Engine is the subset of *engine.Engine the server needs.
type Engine interface {
	Converse(ctx context.Context, sessionID, text string) (engine.Turn, error)
	ChatRaw(ctx context.Context, raw []message.Raw) (string, error)
	GenerateSEO(ctx context.Context, a engine.Article) (engine.SEOMeta, error)
	FillSEO(ctx context.Context, a engine.Article, current engine.SEOMeta) (engine.SEOMeta, error)
}

var _ Engine = (*engine.Engine)(nil)

// Server routes HTTP requests to an Engine.
type Server struct {
	eng            Engine
	logger         *slog.Logger
	mux            *http.ServeMux
	originPatterns []string
}

// Option configures a Server.
type Option func(*Server)

// WithOriginPatterns lets browsers on the given hosts open the chat
// WebSocket, e.g. "example.com" or "*.example.com". Without patterns only
// same-origin pages may connect.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = append(s.originPatterns, patterns...) }
}

// New creates a Server. A nil logger discards output.
func New(eng Engine, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{eng: eng, logger: logger, mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /v1/chat", s.handleChat)
	s.mux.HandleFunc("POST /v1/seo", s.handleSEO)
	s.mux.HandleFunc("GET /v1/chat/ws", s.handleChatWS)

	return s
}

// ServeHTTP implements http.Handler with request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	s.mux.ServeHTTP(rec, r)

	s.logger.Info("http request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- payloads ---

type chatRequest struct {
	SessionID string        `json:"session_id"`
	History   []message.Raw `json:"history"`
	Message   string        `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Reply     string `json:"reply"`
}

type seoRequest struct {
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	FocusKeyword string          `json:"focus_keyword"`
	Current      *engine.SEOMeta `json:"current"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat answers one turn. With a history array the call is stateless,
// otherwise the turn is appended to the stored conversation session_id (a
// new one when empty).
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if req.History != nil {
		raw := req.History
		if req.Message != "" {
			msg := req.Message
			raw = append(raw, message.Raw{Role: "user", Content: &msg})
		}

		reply, err := s.eng.ChatRaw(r.Context(), raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
		return
	}

	turn, err := s.eng.Converse(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{SessionID: turn.SessionID, Reply: turn.Reply})
}

func (s *Server) handleSEO(w http.ResponseWriter, r *http.Request) {
	var req seoRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Title == "" && req.Content == "" {
		s.writeError(w, errBadRequest("title or content is required"))
		return
	}

	a := engine.Article{Title: req.Title, Content: req.Content, FocusKeyword: req.FocusKeyword}

	var (
		meta engine.SEOMeta
		err  error
	)
	if req.Current != nil {
		meta, err = s.eng.FillSEO(r.Context(), a, *req.Current)
	} else {
		meta, err = s.eng.GenerateSEO(r.Context(), a)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

// --- errors ---

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequestError{msg: msg} }

// classify maps an error onto an HTTP status and a machine readable kind.
func classify(err error) (int, string) {
	var br *badRequestError
	switch {
	case errors.As(err, &br),
		errors.Is(err, engine.ErrInvalidHistory),
		errors.Is(err, engine.ErrEmptyMessage):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, engine.ErrSessionBusy), errors.Is(err, session.ErrVersionConflict):
		return http.StatusConflict, "busy"
	case errors.Is(err, engine.ErrInvalidSEOFormat):
		return http.StatusBadGateway, "invalid_format"
	}

	switch kind := modeladapter.KindOf(err); kind {
	case modeladapter.KindConfig:
		return http.StatusServiceUnavailable, string(kind)
	case modeladapter.KindNetwork, modeladapter.KindAPI, modeladapter.KindParse:
		return http.StatusBadGateway, string(kind)
	}

	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "status", status, "kind", kind, "error", err)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

// --- helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errBadRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is required by the WebSocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}
