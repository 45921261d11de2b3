// Package usage accumulates token counts reported by provider responses.
package usage

import "sync"

// TokenCount holds input and output token counts for a single provider call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Tracker accumulates token usage across provider calls, overall and per
// model. It is safe for concurrent use. The zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	last    TokenCount
	total   TokenCount
	calls   int
	byModel map[string]TokenCount
}

// Add records the usage of one call made against model.
func (t *Tracker) Add(model string, tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = tc
	t.total.InputTokens += tc.InputTokens
	t.total.OutputTokens += tc.OutputTokens
	t.calls++

	if t.byModel == nil {
		t.byModel = make(map[string]TokenCount)
	}
	m := t.byModel[model]
	m.InputTokens += tc.InputTokens
	m.OutputTokens += tc.OutputTokens
	t.byModel[model] = m
}

// Last returns the most recent token count entry.
// The bool is false when the tracker has no entries.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.calls > 0
}

// Total returns the aggregate token count across all calls.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded calls.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}

// ByModel returns a snapshot of the aggregate usage per model.
func (t *Tracker) ByModel() map[string]TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]TokenCount, len(t.byModel))
	for k, v := range t.byModel {
		out[k] = v
	}
	return out
}

// Reset clears all recorded usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = TokenCount{}
	t.total = TokenCount{}
	t.calls = 0
	t.byModel = nil
}
