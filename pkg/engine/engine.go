package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ultrapress/ultrapress/pkg/chats/chat"
	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/modeladapter/usage"
	"github.com/ultrapress/ultrapress/pkg/prompt"
	"github.com/ultrapress/ultrapress/pkg/session"
	"github.com/ultrapress/ultrapress/pkg/transcript"
)

// ErrInvalidHistory is returned by Chat when the history is empty or does
// not end with a user message. No provider call is made.
var ErrInvalidHistory = errors.New("engine: invalid chat history")

// TranscriptRecorder receives every conversation turn, successful or not.
type TranscriptRecorder interface {
	Record(ctx context.Context, t *transcript.Turn) error
}

// Engine is the composition root: it owns the provider client, the
// conversation store and the optional transcript, and exposes the chatbot
// and SEO use cases to frontends (HTTP, MCP, CLI).
type Engine struct {
	cfg        Config
	logger     *slog.Logger
	client     *Client
	events     *EventBus
	store      session.Store
	transcript TranscriptRecorder
	closers    []io.Closer

	mu     sync.Mutex
	active map[string]struct{}
}

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	store      session.Store
	transcript TranscriptRecorder
	factories  map[modeladapter.Provider]ProviderFactory
}

// Option configures New.
type Option func(*options)

// WithLogger sets the engine logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTP sets the HTTP client used for provider calls.
func WithHTTP(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithStore replaces the store built from Config.Session. The engine does
// not close a store passed this way.
func WithStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

// WithTranscript replaces the transcript opened from Config.Transcript.
func WithTranscript(r TranscriptRecorder) Option {
	return func(o *options) { o.transcript = r }
}

// WithFactory overrides the adapter factory of one provider.
func WithFactory(p modeladapter.Provider, f ProviderFactory) Option {
	return func(o *options) {
		if o.factories == nil {
			o.factories = make(map[modeladapter.Provider]ProviderFactory)
		}
		o.factories[p] = f
	}
}

// New validates cfg and assembles an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		cfg:    cfg,
		logger: o.logger,
		events: NewEventBus(),
		active: make(map[string]struct{}),
	}

	clientOpts := []ClientOption{
		WithClientLogger(o.logger.With("component", "client")),
		WithTimeout(cfg.Timeout),
		WithHistoryPolicy(cfg.HistoryPolicy()),
		WithEventBus(e.events),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, WithHTTPClient(o.httpClient))
	}
	for p, f := range o.factories {
		clientOpts = append(clientOpts, WithProviderFactory(p, f))
	}
	e.client = NewClient(clientOpts...)

	e.store = o.store
	if e.store == nil {
		s, err := session.NewStore(session.Options{
			Driver:    session.Driver(cfg.Session.Driver),
			RedisAddr: cfg.Session.RedisAddr,
			TTL:       cfg.Session.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.store = s
		e.closers = append(e.closers, s)
	}

	e.transcript = o.transcript
	if e.transcript == nil && cfg.Transcript.Path != "" {
		l, err := transcript.Open(cfg.Transcript.Path)
		if err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.transcript = l
		e.closers = append(e.closers, l)
	}

	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Client returns the provider client.
func (e *Engine) Client() *Client { return e.client }

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// Usage returns token usage per model since the engine started.
func (e *Engine) Usage() map[string]usage.TokenCount { return e.client.Usage() }

// SystemPrompt builds the chatbot system prompt from the configured persona,
// knowledge base and contact details.
func (e *Engine) SystemPrompt() string {
	cb := e.cfg.Chatbot
	return prompt.Chatbot(cb.Persona, message.SanitizeText(cb.KnowledgeBase), message.SanitizeText(cb.ContactInfo))
}

// Chat answers the last user message of hist with the configured persona.
func (e *Engine) Chat(ctx context.Context, hist []message.Message) (string, error) {
	if !chat.New(hist...).AwaitsReply() {
		return "", ErrInvalidHistory
	}

	return e.client.Send(ctx, e.SystemPrompt(), hist, e.cfg.ActiveProvider())
}

// ChatRaw sanitizes untrusted history entries before calling Chat.
func (e *Engine) ChatRaw(ctx context.Context, raw []message.Raw) (string, error) {
	return e.Chat(ctx, message.Sanitize(raw))
}

// Close releases resources the engine opened itself.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *Engine) record(ctx context.Context, sessionID, userText, reply string, elapsed time.Duration, err error) {
	if e.transcript == nil {
		return
	}

	pc := e.cfg.ActiveProvider()
	t := &transcript.Turn{
		SessionID:   sessionID,
		Provider:    pc.Provider,
		Model:       pc.Model,
		UserMessage: userText,
		Reply:       reply,
		Duration:    elapsed,
	}
	if err != nil {
		t.ErrorKind = string(modeladapter.KindOf(err))
		t.Error = err.Error()
	}

	// A lost transcript line must not fail the user's turn.
	if rerr := e.transcript.Record(context.WithoutCancel(ctx), t); rerr != nil {
		e.logger.Error("transcript record failed", "session", sessionID, "error", rerr)
	}
}
