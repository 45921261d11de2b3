package engine

import (
	"maps"
	"net/http"

	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/providers/deepseek"
	"github.com/ultrapress/ultrapress/pkg/providers/gemini"
	"github.com/ultrapress/ultrapress/pkg/providers/openai"
)

// ProviderFactory creates a Completer for one provider. An empty baseURL
// selects the provider's public endpoint.
type ProviderFactory func(baseURL string, client *http.Client) modeladapter.Completer

var builtinFactories = map[modeladapter.Provider]ProviderFactory{
	modeladapter.OpenAI: func(baseURL string, client *http.Client) modeladapter.Completer {
		return openai.New(baseURL, client)
	},
	modeladapter.DeepSeek: func(baseURL string, client *http.Client) modeladapter.Completer {
		return deepseek.New(baseURL, client)
	},
	modeladapter.Gemini: func(baseURL string, client *http.Client) modeladapter.Completer {
		return gemini.New(baseURL, client)
	},
}

// defaultFactories returns a private copy of the built-in registry so a
// client can override entries without affecting others.
func defaultFactories() map[modeladapter.Provider]ProviderFactory {
	return maps.Clone(builtinFactories)
}
