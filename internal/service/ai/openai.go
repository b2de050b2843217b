package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
)

// OpenAIProvider talks to any OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	system      string
	logger      zerolog.Logger

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float64
	SystemInstruction string
	History           []chat.Message
	Logger            zerolog.Logger
}

func NewOpenAI(opts OpenAIOptions) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, ErrNotConfigured
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	history := make([]openai.ChatCompletionMessage, 0, historyLimit)
	for _, msg := range trimHistory(opts.History) {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Text})
		case chat.RoleModel:
			history = append(history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Text})
		}
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		system:      opts.SystemInstruction,
		logger:      opts.Logger,
		history:     history,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) ResetConversation(context.Context) error {
	p.mu.Lock()
	p.history = nil
	p.mu.Unlock()
	return nil
}

func (p *OpenAIProvider) Converse(ctx context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	messages := make([]openai.ChatCompletionMessage, 0, len(p.history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.system})
	messages = append(messages, p.history...)
	messages = append(messages, user)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyResponse
	}

	p.history = append(p.history, user, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply})
	if len(p.history) > historyLimit {
		p.history = p.history[len(p.history)-historyLimit:]
	}
	p.logger.Debug().
		Str("model", p.model).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("openai reply")
	return reply, nil
}

func (p *OpenAIProvider) ScoreMood(ctx context.Context, logText string) (wellness.MoodEntry, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: moodSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: MoodPrompt(logText)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return wellness.MoodEntry{}, fmt.Errorf("openai mood completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return wellness.MoodEntry{}, ErrEmptyResponse
	}
	return ParseMoodPayload(resp.Choices[0].Message.Content)
}
