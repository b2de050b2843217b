package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/config"
	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
)

// New builds the provider selected in cfg. Missing credentials yield
// Unconfigured so the rest of the service keeps working.
func New(ctx context.Context, cfg config.AIConfig, history []chat.Message, logger zerolog.Logger) (Provider, error) {
	logger = logger.With().Str("component", "ai").Str("provider", cfg.Provider).Logger()

	if !cfg.Enabled() {
		logger.Warn().Msg("AI credentials missing, conversation turns will fail with fallback text")
		return Unconfigured{}, nil
	}

	system := cfg.SystemInstruction
	if system == "" {
		system = SystemInstruction
	}

	var (
		provider Provider
		err      error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		provider, err = NewGemini(ctx, GeminiOptions{
			APIKey:            cfg.Gemini.APIKey,
			Model:             cfg.ModelName(),
			Temperature:       cfg.Temperature,
			SystemInstruction: system,
			History:           history,
			Logger:            logger,
		})
	case config.ProviderArk:
		chatModel, modelErr := cfg.Ark.NewChatModel(ctx, cfg.Temperature)
		if modelErr != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", modelErr)
		}
		provider, err = NewArk(ctx, chatModel, ArkOptions{
			SystemInstruction: system,
			History:           history,
			Logger:            logger,
		})
	case config.ProviderOpenAI:
		provider, err = NewOpenAI(OpenAIOptions{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.ModelName(),
			Temperature:       cfg.Temperature,
			SystemInstruction: system,
			History:           history,
			Logger:            logger,
		})
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().Str("model", cfg.ModelName()).Msg("AI provider ready")
	return provider, nil
}
