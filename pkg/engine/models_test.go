package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
)

func TestAvailableModels(t *testing.T) {
	for _, p := range modeladapter.Providers() {
		models := AvailableModels(p)
		assert.NotEmpty(t, models, p)
		assert.Equal(t, models[0], DefaultModel(p))
	}

	assert.Contains(t, AvailableModels(modeladapter.DeepSeek), "deepseek-coder")
	assert.Empty(t, AvailableModels("anthropic"))
	assert.Empty(t, DefaultModel("anthropic"))
}

func TestAvailableModels_ReturnsCopy(t *testing.T) {
	m := AvailableModels(modeladapter.OpenAI)
	m[0] = "changed"

	assert.Equal(t, "gpt-4o", DefaultModel(modeladapter.OpenAI))
}
