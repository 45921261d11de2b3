package gemini

import (
	"slices"
	"strings"
)

// FallbackModel is used whenever a configured model name cannot be mapped.
const FallbackModel = "gemini-1.5-pro"

var validModels = []string{
	"gemini-pro",
	"gemini-1.5-pro",
	"gemini-1.5-pro-latest",
	"gemini-1.5-flash",
	"gemini-1.5-flash-latest",
}

// ValidModels returns the model identifiers the endpoint is known to accept.
func ValidModels() []string {
	return slices.Clone(validModels)
}

// NormalizeModel maps a configured model name onto a known-valid identifier.
// Allow-listed names pass through; anything else is matched by family and
// tier, and unrecognized names fall back to FallbackModel.
func NormalizeModel(name string) string {
	if slices.Contains(validModels, name) {
		return name
	}

	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "gemini-25"), strings.Contains(lower, "gemini-2.5"):
		return "gemini-1.5-pro"
	case strings.Contains(lower, "gemini") && strings.Contains(lower, "flash"):
		return "gemini-1.5-flash"
	case strings.Contains(lower, "gemini") && strings.Contains(lower, "pro"):
		return "gemini-1.5-pro"
	default:
		return FallbackModel
	}
}
