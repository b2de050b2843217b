package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
)

// ArkProvider 基于 eino 链路调用火山方舟模型，自行维护多轮上下文。
type ArkProvider struct {
	chatChain    compose.Runnable[map[string]any, *schema.Message]
	moodChain    compose.Runnable[map[string]any, *schema.Message]
	system       string
	logger       zerolog.Logger
	mu           sync.Mutex
	conversation []*schema.Message
}

// ArkOptions configures an ArkProvider.
type ArkOptions struct {
	SystemInstruction string
	History           []chat.Message
	Logger            zerolog.Logger
}

// NewArk compiles the chat and mood chains over chatModel.
func NewArk(ctx context.Context, chatModel model.BaseChatModel, opts ArkOptions) (*ArkProvider, error) {
	if chatModel == nil {
		return nil, ErrNotConfigured
	}

	chatTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)
	chatChain := compose.NewChain[map[string]any, *schema.Message]()
	chatChain.AppendChatTemplate(chatTemplate)
	chatChain.AppendChatModel(chatModel)

	chatRunnable, err := chatChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	moodTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)
	moodChain := compose.NewChain[map[string]any, *schema.Message]()
	moodChain.AppendChatTemplate(moodTemplate)
	moodChain.AppendChatModel(chatModel)

	moodRunnable, err := moodChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile mood chain: %w", err)
	}

	return &ArkProvider{
		chatChain:    chatRunnable,
		moodChain:    moodRunnable,
		system:       opts.SystemInstruction,
		logger:       opts.Logger,
		conversation: buildHistoryMessages(opts.History),
	}, nil
}

func (p *ArkProvider) Name() string { return "ark" }

func (p *ArkProvider) ResetConversation(context.Context) error {
	p.mu.Lock()
	p.conversation = nil
	p.mu.Unlock()
	return nil
}

// Converse replays the recent conversation and records the exchange on success.
func (p *ArkProvider) Converse(ctx context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	input := map[string]any{
		"system":  p.system,
		"history": append([]*schema.Message(nil), p.conversation...),
		"query":   text,
	}

	response, err := p.chatChain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyResponse
	}

	reply := strings.TrimSpace(response.Content)
	p.conversation = append(p.conversation, schema.UserMessage(text), schema.AssistantMessage(reply, nil))
	if len(p.conversation) > historyLimit {
		p.conversation = p.conversation[len(p.conversation)-historyLimit:]
	}

	p.logger.Debug().Int("length", len(reply)).Msg("ark reply")
	return reply, nil
}

// ScoreMood runs the one-shot mood chain and parses its JSON output.
func (p *ArkProvider) ScoreMood(ctx context.Context, logText string) (wellness.MoodEntry, error) {
	msg, err := p.moodChain.Invoke(ctx, map[string]any{
		"system": moodSystemPrompt,
		"query":  MoodPrompt(logText),
	})
	if err != nil {
		return wellness.MoodEntry{}, fmt.Errorf("failed to run mood chain: %w", err)
	}
	if msg == nil {
		return wellness.MoodEntry{}, ErrEmptyResponse
	}
	return ParseMoodPayload(msg.Content)
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, historyLimit)
	for _, msg := range trimHistory(messages) {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.RoleModel:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}
	return history
}
