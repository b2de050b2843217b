package wellness

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	// DayLayout 是 DailyStats.Date 使用的日期格式。
	DayLayout = "2006-01-02"
	// ShortDayLayout 是心情记录上展示的月/日格式。
	ShortDayLayout = "01/02"
	// MinuteKeyLayout identifies one wall-clock minute for reminder debouncing.
	MinuteKeyLayout = "2006-01-02 15:04"

	DefaultReminderTime = "20:00"
)

// MoodEntry 记录一次情绪分析的结果。
type MoodEntry struct {
	Date    string `json:"date"`
	Score   int    `json:"score" validate:"min=1,max=10"`
	Emotion string `json:"emotion" validate:"required"`
	Notes   string `json:"notes"`
}

// DailyStats tracks today's usage. Date is always the last day the stats were touched.
type DailyStats struct {
	Date            string `json:"date"`
	MessageCount    int    `json:"messageCount"`
	DurationSeconds int    `json:"durationSeconds"`
}

// UserSettings 用户偏好设置，每次修改都会立即持久化。
type UserSettings struct {
	ReminderEnabled        bool   `json:"reminderEnabled"`
	ReminderTime           string `json:"reminderTime" validate:"hhmm"`
	HasCompletedOnboarding bool   `json:"hasCompletedOnboarding"`
	LastReminderFired      string `json:"lastReminderFired,omitempty"`
}

// DefaultSettings mirrors the first-run state of the app.
func DefaultSettings() UserSettings {
	return UserSettings{ReminderTime: DefaultReminderTime}
}

// SettingsPatch 描述一次部分更新，nil 字段保持原值。
type SettingsPatch struct {
	ReminderEnabled *bool   `json:"reminderEnabled,omitempty"`
	ReminderTime    *string `json:"reminderTime,omitempty"`
}

// Apply returns a copy of s with the patch applied.
func (p SettingsPatch) Apply(s UserSettings) UserSettings {
	if p.ReminderEnabled != nil {
		s.ReminderEnabled = *p.ReminderEnabled
	}
	if p.ReminderTime != nil {
		s.ReminderTime = strings.TrimSpace(*p.ReminderTime)
	}
	return s
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return IsClockTime(fl.Field().String())
		})
	})
	return validate
}

// Validate checks the settings invariants.
func (s UserSettings) Validate() error {
	if err := validatorInstance().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Validate checks that the entry carries a usable score and label.
func (e MoodEntry) Validate() error {
	if err := validatorInstance().Struct(e); err != nil {
		return fmt.Errorf("invalid mood entry: %w", err)
	}
	return nil
}

// IsClockTime 判断字符串是否为 HH:MM (00:00-23:59)。
func IsClockTime(value string) bool {
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	return hour < 24 && minute < 60
}
