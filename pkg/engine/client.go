package engine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/history"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/modeladapter/usage"
)

// Client sends one system prompt plus history to the configured provider and
// returns the reply text. It is safe for concurrent use; every call runs on
// the caller's goroutine and nothing is retried.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	timeout    time.Duration
	policy     history.Policy
	events     *EventBus
	factories  map[modeladapter.Provider]ProviderFactory
	estimator  modeladapter.TokenEstimator

	mu       sync.Mutex
	adapters map[adapterKey]modeladapter.Completer
}

type adapterKey struct {
	provider modeladapter.Provider
	baseURL  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger. The default discards output.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each provider call. Zero keeps
// modeladapter.DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHistoryPolicy replaces history.DefaultPolicy.
func WithHistoryPolicy(p history.Policy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithEventBus publishes request events to bus.
func WithEventBus(bus *EventBus) ClientOption {
	return func(c *Client) { c.events = bus }
}

// WithProviderFactory overrides how the adapter for p is built.
func WithProviderFactory(p modeladapter.Provider, f ProviderFactory) ClientOption {
	return func(c *Client) { c.factories[p] = f }
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:   modeladapter.DefaultTimeout,
		policy:    history.DefaultPolicy,
		factories: defaultFactories(),
		adapters:  make(map[adapterKey]modeladapter.Completer),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c
}

// Send validates pc, compresses hist, and performs a single provider call.
// Every error is a *modeladapter.Error; configuration problems are reported
// before any network activity.
func (c *Client) Send(ctx context.Context, systemPrompt string, hist []message.Message, pc ProviderConfig) (string, error) {
	p, err := modeladapter.ParseProvider(pc.Provider)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(pc.APIKey) == "" {
		return "", modeladapter.Errorf(modeladapter.KindConfig, "API key missing for provider %s", p)
	}
	if strings.TrimSpace(pc.Model) == "" {
		return "", modeladapter.Errorf(modeladapter.KindConfig, "model missing for provider %s", p)
	}

	completer, err := c.adapter(p, pc.BaseURL)
	if err != nil {
		return "", err
	}

	maxTokens := pc.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	req := modeladapter.Request{
		APIKey:       pc.APIKey,
		Model:        pc.Model,
		SystemPrompt: systemPrompt,
		History:      c.policy.Compress(hist),
		MaxTokens:    maxTokens,
		Temperature:  pc.Temperature,
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(ctx)
	c.publish(Event{Kind: EventRequestStart, SessionID: sessionID, Provider: string(p), Model: pc.Model})

	start := time.Now()
	text, err := completer.Complete(ctx, req)
	elapsed := time.Since(start)

	attrs := []any{
		"provider", p,
		"model", pc.Model,
		"history", len(hist),
		"sent", len(req.History),
		"est_tokens", c.estimator.EstimateRequest(req),
		"duration", elapsed,
	}
	if rl, ok := completer.(modeladapter.RateLimitInfoReporter); ok {
		if info := rl.LastRateLimitInfo(); info != nil {
			attrs = append(attrs, "remaining_requests", info.RemainingRequests, "remaining_tokens", info.RemainingTokens)
		}
	}
	if err != nil {
		c.logger.Warn("provider request failed", append(attrs, "kind", modeladapter.KindOf(err), "error", err)...)
	} else {
		c.logger.Debug("provider request", attrs...)
	}

	c.publish(Event{
		Kind:      EventRequestEnd,
		SessionID: sessionID,
		Provider:  string(p),
		Model:     pc.Model,
		Data:      RequestEnd{Duration: elapsed, Err: err},
	})

	if err != nil {
		c.publish(Event{Kind: EventError, SessionID: sessionID, Provider: string(p), Model: pc.Model, Data: err})
		return "", err
	}

	return text, nil
}

// Usage returns token usage per model across every adapter the client built.
func (c *Client) Usage() map[string]usage.TokenCount {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]usage.TokenCount)
	for _, a := range c.adapters {
		ur, ok := a.(modeladapter.UsageReporter)
		if !ok {
			continue
		}
		for model, tc := range ur.UsageTracker().ByModel() {
			sum := out[model]
			sum.InputTokens += tc.InputTokens
			sum.OutputTokens += tc.OutputTokens
			out[model] = sum
		}
	}

	return out
}

// adapter returns the cached Completer for (p, baseURL), building it on
// first use so usage tracking survives across calls.
func (c *Client) adapter(p modeladapter.Provider, baseURL string) (modeladapter.Completer, error) {
	key := adapterKey{provider: p, baseURL: baseURL}

	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.adapters[key]; ok {
		return a, nil
	}

	factory, ok := c.factories[p]
	if !ok {
		return nil, modeladapter.Errorf(modeladapter.KindConfig, "unsupported provider %s", p)
	}

	a := factory(baseURL, c.httpClient)
	c.adapters[key] = a

	return a, nil
}

func (c *Client) publish(e Event) {
	if c.events == nil {
		return
	}
	e.Timestamp = time.Now()
	c.events.Publish(e)
}
