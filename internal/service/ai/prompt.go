package ai

import (
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
)

// SystemInstruction 设定心语的人格与安全边界。
const SystemInstruction = `You are MindPal (心语), a warm, empathetic, and supportive AI companion for mental wellness.
Your goal is to provide a safe space for users to vent and reflect.

Directives:
1. **Empathy First**: Always validate the user's feelings. Use warm, gentle language (Chinese by default).
2. **CBT Approach**: Gently guide users using Cognitive Behavioral Therapy techniques (e.g., reframing negative thoughts) but do NOT lecture them.
3. **Non-Medical**: You are NOT a doctor or therapist. Do not give medical diagnoses or prescriptions. If asked, clarify your role.
4. **Crisis Intervention**: If the user expresses intent of self-harm, suicide, or violence, you MUST:
   - Prioritize safety immediately.
   - Provide the Chinese National Crisis Hotline: 400-161-9995.
   - Encourage seeking professional help.
   - Keep the tone calm and supportive, not alarmist.
5. **Personality**: You are a cute, reliable robot friend. You are non-judgmental.

Format:
- Keep responses concise (under 150 words usually) unless a deep explanation is asked for.
- Use emojis occasionally to soften the tone. 🌿✨`

// moodSystemPrompt is used by providers without native response schemas.
const moodSystemPrompt = "你是一名情绪分析师。阅读对话记录，判断用户的主导情绪与强度。\n" +
	"输出要求：只返回一个 JSON 对象，字段如下：date (YYYY-MM-DD)、score (1~10 的整数，1 表示非常难过，10 表示非常开心)、" +
	"emotion (一个中文情绪词，例如 焦虑、平静)、notes (一句话说明原因)。不得输出多余文本。"

// MoodPrompt builds the user-side instruction for a mood analysis.
func MoodPrompt(logText string) string {
	return "Based on the following conversation log, analyze the user's dominant emotion and intensity (1-10).\nLog: " + logText
}

type moodPayload struct {
	Date    string  `json:"date"`
	Score   float64 `json:"score"`
	Emotion string  `json:"emotion"`
	Notes   string  `json:"notes"`
}

// ParseMoodPayload 解析模型返回的 JSON，并校验分数与情绪标签。
func ParseMoodPayload(content string) (wellness.MoodEntry, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return wellness.MoodEntry{}, ErrEmptyResponse
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return wellness.MoodEntry{}, fmt.Errorf("%w: missing json object", ErrMalformedResponse)
	}

	var payload moodPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return wellness.MoodEntry{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if payload.Score != math.Trunc(payload.Score) {
		return wellness.MoodEntry{}, fmt.Errorf("%w: score %v is not an integer", ErrMalformedResponse, payload.Score)
	}
	entry := wellness.MoodEntry{
		Date:    strings.TrimSpace(payload.Date),
		Score:   int(payload.Score),
		Emotion: strings.TrimSpace(payload.Emotion),
		Notes:   strings.TrimSpace(payload.Notes),
	}
	if err := entry.Validate(); err != nil {
		return wellness.MoodEntry{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return entry, nil
}
