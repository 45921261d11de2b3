package modeladapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/modeladapter/usage"
)

// DefaultTimeout bounds a single provider call when no client is configured.
const DefaultTimeout = 60 * time.Second

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 8 << 20

// Provider identifies an LLM vendor wire protocol.
type Provider string

const (
	OpenAI   Provider = "openai"
	DeepSeek Provider = "deepseek"
	Gemini   Provider = "gemini"
)

// Providers lists the supported providers in display order.
func Providers() []Provider {
	return []Provider{OpenAI, DeepSeek, Gemini}
}

// ParseProvider maps a configuration string onto a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case OpenAI, DeepSeek, Gemini:
		return p, nil
	}
	return "", Errorf(KindConfig, "unsupported provider %s", s)
}

// Request is everything an adapter needs to shape one provider call.
type Request struct {
	APIKey       string //nolint:gosec // request field, not a hardcoded secret
	Model        string
	SystemPrompt string
	History      []message.Message
	MaxTokens    int
	Temperature  float64 // Zero selects the provider default.
}

// WireRequest is a fully shaped provider HTTP request.
type WireRequest struct {
	URL    string
	Header http.Header
	Body   []byte
}

// Adapter is the capability set of a provider: turn a Request into a wire
// request, and turn a wire response into reply text or an *Error.
type Adapter interface {
	BuildRequest(req Request) (WireRequest, error)
	ParseResponse(status int, body []byte) (string, error)
}

// Completer sends one request to a provider and returns the reply text.
// Returned errors are always *Error.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// UsageParser is implemented by adapters that can read token usage from a
// successful response body.
type UsageParser interface {
	ParseUsage(body []byte) (usage.TokenCount, bool)
}

// UsageReporter provides token usage information from a completer.
// Completers that embed ModelAdapter implement this interface automatically.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// Auth describes where a provider expects its API key.
type Auth struct {
	Header     string // Header name (default: "Authorization").
	Scheme     string // Scheme prefix (default: "Bearer" when Header is "Authorization").
	QueryParam string // When set, the key travels as this query parameter instead of a header.
}

// Apply attaches key to the outgoing URL or header set.
func (a Auth) Apply(key string, u *url.URL, h http.Header) {
	if key == "" {
		return
	}

	if a.QueryParam != "" {
		q := u.Query()
		q.Set(a.QueryParam, key)
		u.RawQuery = q.Encode()
		return
	}

	header := a.Header
	if header == "" {
		header = "Authorization"
	}

	value := key
	if header == "Authorization" {
		scheme := a.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}

		value = scheme + " " + value
	} else if a.Scheme != "" {
		value = a.Scheme + " " + value
	}

	h.Set(header, value)
}

// ModelAdapter holds shared state for provider implementations. Embed it in
// concrete adapter structs to get the HTTP round trip, auth placement, custom
// headers and usage tracking.
type ModelAdapter struct {
	Provider     Provider              // Which wire protocol the adapter speaks.
	BaseURL      string                // API base URL (no trailing slash).
	Auth         Auth                  // Where the API key goes.
	Client       *http.Client          // HTTP client; falls back to a client with DefaultTimeout.
	Headers      map[string]string     // Extra headers applied to every request.
	Usage        usage.Tracker         // Token usage tracker.
	HeaderParser RateLimitHeaderParser // Optional parser for rate limit response headers.

	rateLimitInfo atomic.Pointer[RateLimitInfo]
	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates a ModelAdapter with the given settings.
// A nil client falls back to a client with DefaultTimeout at call time.
func New(p Provider, baseURL string, auth Auth, client *http.Client) ModelAdapter {
	return ModelAdapter{
		Provider: p,
		Auth:     auth,
		BaseURL:  baseURL,
		Client:   client,
	}
}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

// LastRateLimitInfo returns the most recently observed rate limit info, or nil.
func (a *ModelAdapter) LastRateLimitInfo() *RateLimitInfo { return a.rateLimitInfo.Load() }

// httpClient returns the configured client or a cached default client.
func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: DefaultTimeout}
	})

	return a.defaultClient
}

// NewWireRequest starts a WireRequest for path with auth and custom headers
// applied. The body is filled in by the caller.
func (a *ModelAdapter) NewWireRequest(path, apiKey string) (WireRequest, error) {
	u, err := url.Parse(a.BaseURL + path)
	if err != nil {
		return WireRequest{}, Errorf(KindConfig, "invalid %s endpoint: %v", a.Provider, err)
	}

	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	for k, v := range a.Headers {
		h.Set(k, v)
	}
	a.Auth.Apply(apiKey, u, h)

	return WireRequest{URL: u.String(), Header: h}, nil
}

// Exchange runs one full round trip for ad: build the wire request, POST it,
// and parse the response. Every returned error is an *Error.
func (a *ModelAdapter) Exchange(ctx context.Context, ad Adapter, req Request) (string, error) {
	wr, err := ad.BuildRequest(req)
	if err != nil {
		return "", asError(KindConfig, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, wr.URL, bytes.NewReader(wr.Body))
	if err != nil {
		return "", &Error{Kind: KindConfig, Detail: "build request: " + redact(err.Error(), req.APIKey), Err: err}
	}
	httpReq.Header = wr.Header.Clone()

	resp, err := a.httpClient().Do(httpReq) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
	if err != nil {
		return "", networkError(err, req.APIKey)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", networkError(err, req.APIKey)
	}

	text, err := ad.ParseResponse(resp.StatusCode, body)
	if err != nil {
		e := asError(KindParse, err)
		if resp.StatusCode == http.StatusTooManyRequests {
			e.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return "", e
	}

	if a.HeaderParser != nil {
		if info := a.HeaderParser(resp.Header, time.Now()); info != nil {
			a.rateLimitInfo.Store(info)
		}
	}

	if up, ok := ad.(UsageParser); ok {
		if tc, ok := up.ParseUsage(body); ok {
			a.Usage.Add(req.Model, tc)
		}
	}

	return text, nil
}

// asError returns err as an *Error, wrapping foreign errors with fallback.
func asError(fallback ErrorKind, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: fallback, Detail: err.Error(), Err: err}
}

// networkError wraps a transport failure. The API key is scrubbed from the
// message since url.Error embeds the full request URL.
func networkError(err error, apiKey string) *Error {
	return &Error{
		Kind:   KindNetwork,
		Detail: fmt.Sprintf("request failed: %s", redact(err.Error(), apiKey)),
		Err:    err,
	}
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(secret), "REDACTED")
	return strings.ReplaceAll(s, secret, "REDACTED")
}
