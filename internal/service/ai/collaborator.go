package ai

import (
	"context"
	"errors"

	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
)

var (
	// ErrNotConfigured 表示当前 provider 缺少凭证。
	ErrNotConfigured = errors.New("ai provider not configured")
	// ErrEmptyResponse 表示模型返回了空文本。
	ErrEmptyResponse = errors.New("ai returned empty response")
	// ErrMalformedResponse 表示模型返回内容无法解析为期望的结构。
	ErrMalformedResponse = errors.New("ai returned malformed response")
)

// historyLimit caps the turns replayed to stateless providers.
const historyLimit = 10

// Conversation is a multi-turn chat seeded with the companion persona.
type Conversation interface {
	Converse(ctx context.Context, text string) (string, error)
}

// MoodScorer derives a mood entry from a formatted conversation log.
type MoodScorer interface {
	ScoreMood(ctx context.Context, logText string) (wellness.MoodEntry, error)
}

// Provider bundles both collaborators behind one backend.
type Provider interface {
	Conversation
	MoodScorer
	Name() string
	// ResetConversation drops the multi-turn context, keeping the persona.
	ResetConversation(ctx context.Context) error
}

// Unconfigured fails every call with ErrNotConfigured so the server can run without credentials.
type Unconfigured struct{}

func (Unconfigured) Name() string { return "unconfigured" }

func (Unconfigured) ResetConversation(context.Context) error { return nil }

func (Unconfigured) Converse(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) ScoreMood(context.Context, string) (wellness.MoodEntry, error) {
	return wellness.MoodEntry{}, ErrNotConfigured
}

func trimHistory(messages []chat.Message) []chat.Message {
	if len(messages) > historyLimit {
		return messages[len(messages)-historyLimit:]
	}
	return messages
}
