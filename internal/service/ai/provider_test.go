package ai

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindpal/backend/internal/config"
)

func TestNewWithoutCredentials(t *testing.T) {
	p, err := New(context.Background(), config.AIConfig{Provider: config.ProviderGemini}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "unconfigured", p.Name())
}

func TestNewOpenAIProvider(t *testing.T) {
	cfg := config.AIConfig{
		Provider:    config.ProviderOpenAI,
		Temperature: 0.7,
		OpenAI:      config.OpenAIConfig{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"},
	}
	p, err := New(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}
