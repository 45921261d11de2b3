package engine

import (
	"slices"

	"github.com/ultrapress/ultrapress/pkg/modeladapter"
)

// modelCatalog lists the models offered per provider, first entry is the
// default.
var modelCatalog = map[modeladapter.Provider][]string{
	modeladapter.OpenAI: {
		"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo",
		"gpt-4.1", "gpt-4.1-mini", "gpt-4.1-nano",
		"gpt-5", "gpt-5-mini", "gpt-5-nano",
		"o3", "o3-pro",
	},
	modeladapter.DeepSeek: {"deepseek-chat", "deepseek-coder"},
	modeladapter.Gemini: {
		"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite", "gemini-1.5-pro-latest",
	},
}

// AvailableModels returns the selectable models for p. Configured models
// outside this list are still sent as-is (Gemini names are normalized).
func AvailableModels(p modeladapter.Provider) []string {
	return slices.Clone(modelCatalog[p])
}

// DefaultModel returns the first catalog entry for p, or "".
func DefaultModel(p modeladapter.Provider) string {
	if m := modelCatalog[p]; len(m) > 0 {
		return m[0]
	}
	return ""
}
