// Package providers groups the concrete LLM adapters.
//
// Each sub-package embeds [github.com/ultrapress/ultrapress/pkg/modeladapter.ModelAdapter]
// and implements its Adapter capability set:
//   - [github.com/ultrapress/ultrapress/pkg/providers/openai] for OpenAI chat completions
//   - [github.com/ultrapress/ultrapress/pkg/providers/deepseek] for DeepSeek, on the OpenAI protocol
//   - [github.com/ultrapress/ultrapress/pkg/providers/gemini] for Gemini generateContent, with model name normalization
package providers
