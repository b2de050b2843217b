package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
	"github.com/zhouzirui/mindpal/backend/internal/storage"
)

// Greeting 是完成引导后写入的第一条助手消息。
const Greeting = "你好！我是心语 (MindPal)。我在这里随时倾听你的心声。今天感觉怎么样？🌿"

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrInvalidView     = errors.New("invalid view")
)

// View 是前端当前展示的页面，不持久化。
type View string

const (
	ViewOnboarding View = "ONBOARDING"
	ViewChat       View = "CHAT"
	ViewDashboard  View = "DASHBOARD"
	ViewResources  View = "RESOURCES"
)

// ParseView accepts a view name in any case.
func ParseView(value string) (View, error) {
	switch v := View(strings.ToUpper(strings.TrimSpace(value))); v {
	case ViewOnboarding, ViewChat, ViewDashboard, ViewResources:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidView, value)
	}
}

// Warning describes the most recent failed slot write.
type Warning struct {
	Slot    storage.Slot `json:"slot"`
	Message string       `json:"message"`
	At      time.Time    `json:"at"`
}

// Snapshot is a consistent copy of the whole state.
type Snapshot struct {
	Messages []chat.Message        `json:"messages"`
	Moods    []wellness.MoodEntry  `json:"moods"`
	Stats    wellness.DailyStats   `json:"stats"`
	Settings wellness.UserSettings `json:"settings"`
	Crisis   bool                  `json:"crisis"`
	View     View                  `json:"view"`
	Warning  *Warning              `json:"warning,omitempty"`
}

// Options configures a State. Zero values fall back to time.Now, time.Local and a no-op logger.
type Options struct {
	Clock     func() time.Time
	Location  *time.Location
	Logger    zerolog.Logger
	OnWarning func(slot storage.Slot, err error)
}

// State owns messages, mood entries, daily stats and settings, and mirrors every
// change into the store. All methods are safe for concurrent use.
type State struct {
	mu     sync.RWMutex
	store  storage.Store
	now    func() time.Time
	loc    *time.Location
	logger zerolog.Logger
	hook   func(slot storage.Slot, err error)

	messages []chat.Message
	moods    []wellness.MoodEntry
	stats    wellness.DailyStats
	settings wellness.UserSettings
	crisis   bool
	view     View
	warning  *Warning
}

// New creates a State with default values. Call Load to rehydrate it.
func New(store storage.Store, opts Options) *State {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &State{
		store:    store,
		now:      opts.Clock,
		loc:      opts.Location,
		logger:   opts.Logger.With().Str("component", "session").Logger(),
		hook:     opts.OnWarning,
		messages: []chat.Message{},
		moods:    []wellness.MoodEntry{},
		settings: wellness.DefaultSettings(),
		view:     ViewOnboarding,
	}
	s.stats = wellness.DailyStats{Date: s.today(s.now())}
	return s
}

// Load rehydrates every slot from the store. A slot that cannot be read keeps
// its default and is reported as a warning; the joined errors are returned.
func (s *State) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	load := func(slot storage.Slot, dst any) bool {
		ok, err := s.store.Load(ctx, slot, dst)
		if err != nil {
			s.recordWarning(slot, err)
			errs = append(errs, err)
			return false
		}
		return ok
	}

	var messages []chat.Message
	if load(storage.SlotMessages, &messages) && messages != nil {
		s.messages = messages
	}

	var moods []wellness.MoodEntry
	if load(storage.SlotMoods, &moods) && moods != nil {
		s.moods = moods
	}

	var stats wellness.DailyStats
	if load(storage.SlotStats, &stats) && stats.Date != "" {
		s.stats = stats
		if s.rollover(s.now()) {
			s.persist(ctx, storage.SlotStats, s.stats)
		}
	}

	settings := wellness.DefaultSettings()
	if load(storage.SlotSettings, &settings) {
		if settings.ReminderTime == "" {
			settings.ReminderTime = wellness.DefaultReminderTime
		}
		s.settings = settings
	}

	s.view = ViewOnboarding
	if s.settings.HasCompletedOnboarding {
		s.view = ViewChat
	}

	s.logger.Debug().
		Int("messages", len(s.messages)).
		Int("moods", len(s.moods)).
		Str("stats_date", s.stats.Date).
		Msg("state loaded")
	return errors.Join(errs...)
}

// AppendUserMessage records a user message and counts it in today's stats.
// The returned stats reflect the increment.
func (s *State) AppendUserMessage(ctx context.Context, text string, crisis bool) (chat.Message, wellness.DailyStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	msg := s.newMessage(chat.RoleUser, text, now)
	msg.IsCrisis = crisis
	s.messages = append(s.messages, msg)

	s.rollover(now)
	s.stats.MessageCount++

	s.persist(ctx, storage.SlotMessages, s.messages)
	s.persist(ctx, storage.SlotStats, s.stats)
	return msg, s.stats
}

// AppendModelMessage records an assistant reply. Stats are not affected.
func (s *State) AppendModelMessage(ctx context.Context, text string) chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.newMessage(chat.RoleModel, text, s.now())
	s.messages = append(s.messages, msg)
	s.persist(ctx, storage.SlotMessages, s.messages)
	return msg
}

// TickDuration adds one second of active time to today's stats.
func (s *State) TickDuration(ctx context.Context) wellness.DailyStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover(s.now())
	s.stats.DurationSeconds++
	s.persist(ctx, storage.SlotStats, s.stats)
	return s.stats
}

// AppendMoodEntry validates entry, stamps it with today's short date and appends it.
func (s *State) AppendMoodEntry(ctx context.Context, entry wellness.MoodEntry) (wellness.MoodEntry, error) {
	if err := entry.Validate(); err != nil {
		return wellness.MoodEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Date = s.now().In(s.loc).Format(wellness.ShortDayLayout)
	s.moods = append(s.moods, entry)
	s.persist(ctx, storage.SlotMoods, s.moods)
	return entry, nil
}

// CompleteOnboarding marks onboarding done, switches to the chat view and
// greets the user when the history is empty.
func (s *State) CompleteOnboarding(ctx context.Context) wellness.UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.HasCompletedOnboarding = true
	s.persist(ctx, storage.SlotSettings, s.settings)
	s.view = ViewChat

	if len(s.messages) == 0 {
		s.messages = append(s.messages, s.newMessage(chat.RoleModel, Greeting, s.now()))
		s.persist(ctx, storage.SlotMessages, s.messages)
	}
	return s.settings
}

// UpdateSettings applies patch and persists the result. It returns the
// settings as they were before the patch together with the updated ones, both
// read under the same lock, so callers can detect transitions.
func (s *State) UpdateSettings(ctx context.Context, patch wellness.SettingsPatch) (previous, updated wellness.UserSettings, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous = s.settings
	next := patch.Apply(s.settings)
	if verr := next.Validate(); verr != nil {
		return previous, s.settings, fmt.Errorf("%w: %v", ErrInvalidSettings, verr)
	}
	s.settings = next
	s.persist(ctx, storage.SlotSettings, s.settings)
	return previous, s.settings, nil
}

// MarkReminderFired stores minuteKey as the last fired reminder. It reports
// false without writing when the marker already equals minuteKey.
func (s *State) MarkReminderFired(ctx context.Context, minuteKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings.LastReminderFired == minuteKey {
		return false
	}
	s.settings.LastReminderFired = minuteKey
	s.persist(ctx, storage.SlotSettings, s.settings)
	return true
}

func (s *State) RaiseCrisis() {
	s.mu.Lock()
	s.crisis = true
	s.mu.Unlock()
}

func (s *State) DismissCrisis() {
	s.mu.Lock()
	s.crisis = false
	s.mu.Unlock()
}

func (s *State) CrisisActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crisis
}

func (s *State) SetView(view View) error {
	if _, err := ParseView(string(view)); err != nil {
		return err
	}
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	return nil
}

func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Reset clears every slot and restores first-run defaults.
func (s *State) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	s.messages = []chat.Message{}
	s.moods = []wellness.MoodEntry{}
	s.stats = wellness.DailyStats{Date: s.today(s.now())}
	s.settings = wellness.DefaultSettings()
	s.crisis = false
	s.view = ViewOnboarding
	s.warning = nil

	s.logger.Info().Msg("state reset")
	return nil
}

func (s *State) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]chat.Message, 0, len(s.messages)), s.messages...)
}

// RecentMessages returns at most the last n messages, oldest first.
func (s *State) RecentMessages(n int) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	start := len(s.messages) - n
	if start < 0 {
		start = 0
	}
	return append(make([]chat.Message, 0, len(s.messages)-start), s.messages[start:]...)
}

func (s *State) Moods() []wellness.MoodEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]wellness.MoodEntry, 0, len(s.moods)), s.moods...)
}

func (s *State) Stats() wellness.DailyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *State) Settings() wellness.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// LastWarning returns the most recent storage warning, if any.
func (s *State) LastWarning() *Warning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.warning == nil {
		return nil
	}
	w := *s.warning
	return &w
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Messages: append([]chat.Message{}, s.messages...),
		Moods:    append([]wellness.MoodEntry{}, s.moods...),
		Stats:    s.stats,
		Settings: s.settings,
		Crisis:   s.crisis,
		View:     s.view,
	}
	if s.warning != nil {
		w := *s.warning
		snap.Warning = &w
	}
	return snap
}

// rollover starts a fresh stats record when now falls on a later day than the
// stored one and reports whether it did. An earlier day keeps accumulating
// onto the stored record.
func (s *State) rollover(now time.Time) bool {
	today := s.today(now)
	if today > s.stats.Date {
		s.stats = wellness.DailyStats{Date: today}
		return true
	}
	return false
}

func (s *State) today(now time.Time) string {
	return now.In(s.loc).Format(wellness.DayLayout)
}

func (s *State) newMessage(role chat.Role, text string, now time.Time) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: now.UTC().Truncate(time.Second),
	}
}

// persist must be called with mu held.
func (s *State) persist(ctx context.Context, slot storage.Slot, value any) {
	if err := s.store.Save(ctx, slot, value); err != nil {
		s.recordWarning(slot, err)
		return
	}
	if s.warning != nil && s.warning.Slot == slot {
		s.warning = nil
	}
}

func (s *State) recordWarning(slot storage.Slot, err error) {
	s.warning = &Warning{
		Slot:    slot,
		Message: err.Error(),
		At:      s.now().UTC().Truncate(time.Second),
	}
	s.logger.Warn().Err(err).Str("slot", string(slot)).Msg("storage operation failed")
	if s.hook != nil {
		s.hook(slot, err)
	}
}
