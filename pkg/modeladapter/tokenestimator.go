package modeladapter

// perMessageOverhead is the estimated token overhead for each message (role,
// structure delimiters, etc.).
const perMessageOverhead = 4

// TokenEstimator estimates the input token count of a Request before it is
// sent. It uses a character-to-token heuristic (approximately 1 token per 4
// characters of English text) plus a fixed per-message overhead.
// The zero value is ready to use.
type TokenEstimator struct{}

// charsToTokens converts a character count to an estimated token count using the
// 1-token-per-4-characters heuristic.
func charsToTokens(chars int) int {
	return (chars + 3) / 4 // round up
}

// EstimateRequest estimates the input tokens of the system prompt and history
// of req. It does not account for provider-specific flattening.
func (e *TokenEstimator) EstimateRequest(req Request) int {
	tokens := 0

	if req.SystemPrompt != "" {
		tokens += charsToTokens(len(req.SystemPrompt)) + perMessageOverhead
	}

	for _, m := range req.History {
		tokens += charsToTokens(len(m.Content)) + perMessageOverhead
	}

	return tokens
}
