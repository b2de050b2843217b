package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
)

func TestParseMoodPayload(t *testing.T) {
	entry, err := ParseMoodPayload(`{"date":"2026-10-17","score":4,"emotion":" 焦虑 ","notes":"工作压力大"}`)
	require.NoError(t, err)
	assert.Equal(t, wellness.MoodEntry{Date: "2026-10-17", Score: 4, Emotion: "焦虑", Notes: "工作压力大"}, entry)
}

func TestParseMoodPayloadTrimsSurroundingText(t *testing.T) {
	entry, err := ParseMoodPayload("```json\n{\"score\": 8, \"emotion\": \"开心\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, 8, entry.Score)
	assert.Equal(t, "开心", entry.Emotion)
}

func TestParseMoodPayloadRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no object":     "I think the user is fine.",
		"broken json":   `{"score": 4, "emotion": }`,
		"score too low": `{"score": 0, "emotion": "难过"}`,
		"score too big": `{"score": 11, "emotion": "开心"}`,
		"fractional":    `{"score": 6.5, "emotion": "平静"}`,
		"no emotion":    `{"score": 5, "emotion": "  "}`,
		"score string":  `{"score": "five", "emotion": "平静"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMoodPayload(content)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseMoodPayloadEmpty(t *testing.T) {
	_, err := ParseMoodPayload("   ")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestMoodPromptEmbedsLog(t *testing.T) {
	prompt := MoodPrompt("user: 我很好\nmodel: 太棒了")
	assert.Contains(t, prompt, "intensity (1-10)")
	assert.Contains(t, prompt, "Log: user: 我很好\nmodel: 太棒了")
}

func TestUnconfiguredFailsEveryCall(t *testing.T) {
	var p Provider = Unconfigured{}

	_, err := p.Converse(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = p.ScoreMood(context.Background(), "log")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
