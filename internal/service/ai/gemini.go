package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
)

// GeminiProvider 基于 Google GenAI 的聊天会话与结构化情绪分析。
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger zerolog.Logger

	mu     sync.Mutex
	config *genai.GenerateContentConfig
	chat   *genai.Chat
}

// GeminiOptions configures a GeminiProvider.
type GeminiOptions struct {
	APIKey            string
	Model             string
	Temperature       float64
	SystemInstruction string
	History           []chat.Message
	Logger            zerolog.Logger
}

// NewGemini creates the client and opens a chat session seeded with the persona.
func NewGemini(ctx context.Context, opts GeminiOptions) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(opts.Temperature)),
	}

	chatSession, err := client.Chats.Create(ctx, opts.Model, config, geminiHistory(opts.History))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini chat: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  opts.Model,
		logger: opts.Logger,
		config: config,
		chat:   chatSession,
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// ResetConversation opens a fresh chat session.
func (p *GeminiProvider) ResetConversation(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chatSession, err := p.client.Chats.Create(ctx, p.model, p.config, nil)
	if err != nil {
		return fmt.Errorf("failed to create gemini chat: %w", err)
	}
	p.chat = chatSession
	return nil
}

// Converse sends text on the shared chat session.
func (p *GeminiProvider) Converse(ctx context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, err := p.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini send message: %w", err)
	}

	reply := strings.TrimSpace(res.Text())
	if reply == "" {
		return "", ErrEmptyResponse
	}
	p.logger.Debug().Str("model", p.model).Int("length", len(reply)).Msg("gemini reply")
	return reply, nil
}

// ScoreMood asks for a schema-constrained JSON mood entry.
func (p *GeminiProvider) ScoreMood(ctx context.Context, logText string) (wellness.MoodEntry, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   moodSchema(),
	}

	res, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(MoodPrompt(logText)), config)
	if err != nil {
		return wellness.MoodEntry{}, fmt.Errorf("gemini generate content: %w", err)
	}
	return ParseMoodPayload(res.Text())
}

func moodSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":    {Type: genai.TypeString, Description: "Current date in YYYY-MM-DD format"},
			"score":   {Type: genai.TypeNumber, Description: "Mood score from 1 (Very Sad) to 10 (Very Happy)"},
			"emotion": {Type: genai.TypeString, Description: "One word emotion description in Chinese (e.g. 焦虑, 平静)"},
			"notes":   {Type: genai.TypeString, Description: "A very brief 1 sentence summary of why they feel this way."},
		},
		Required:         []string{"date", "score", "emotion", "notes"},
		PropertyOrdering: []string{"date", "score", "emotion", "notes"},
	}
}

func geminiHistory(messages []chat.Message) []*genai.Content {
	history := []*genai.Content{}
	for _, msg := range trimHistory(messages) {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, genai.NewContentFromText(msg.Text, genai.RoleUser))
		case chat.RoleModel:
			// 会话历史必须以用户消息开头。
			if len(history) == 0 {
				continue
			}
			history = append(history, genai.NewContentFromText(msg.Text, genai.RoleModel))
		}
	}
	return history
}
