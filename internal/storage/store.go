// Package storage persists named slots of session data.
//
// Each slot is overwritten in full on every save and there are no
// transactions across slots: a crash between two writes can leave slots
// from different moments, which callers accept since every slot is
// authoritative only for its own entity.
package storage

import "context"

// Slot names one unit of durable storage holding a single entity type.
type Slot string

const (
	SlotMessages Slot = "mindpal_messages"
	SlotMoods    Slot = "mindpal_moods"
	SlotStats    Slot = "mindpal_stats"
	SlotSettings Slot = "mindpal_settings"
)

// AllSlots lists every slot in a stable order.
func AllSlots() []Slot {
	return []Slot{SlotMessages, SlotMoods, SlotStats, SlotSettings}
}

// Store is the durable key-value contract used by the session state.
type Store interface {
	// Save serializes value and overwrites slot.
	Save(ctx context.Context, slot Slot, value any) error
	// Load decodes slot into dst. It reports false when the slot is absent.
	Load(ctx context.Context, slot Slot, dst any) (bool, error)
	// Clear removes every slot.
	Clear(ctx context.Context) error
}
