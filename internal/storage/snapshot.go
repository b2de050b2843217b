package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

const snapshotVersion = 1

// RawStore exposes slot bytes without decoding, used for backups.
type RawStore interface {
	SaveRaw(slot Slot, data []byte) error
	LoadRaw(slot Slot) ([]byte, bool, error)
}

// Snapshot is the on-disk backup envelope.
type Snapshot struct {
	Version    int                      `json:"version"`
	ExportedAt time.Time                `json:"exported_at"`
	Slots      map[Slot]json.RawMessage `json:"slots"`
}

// Export writes every present slot to a zstd-compressed snapshot file.
// The file is written to a temporary name and renamed into place.
func Export(store RawStore, fileName string, now time.Time) (int, error) {
	snapshot := Snapshot{
		Version:    snapshotVersion,
		ExportedAt: now,
		Slots:      make(map[Slot]json.RawMessage, len(AllSlots())),
	}
	for _, slot := range AllSlots() {
		data, ok, err := store.LoadRaw(slot)
		if err != nil {
			return 0, err
		}
		if ok {
			snapshot.Slots[slot] = data
		}
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()
	data := encoder.EncodeAll(jsonData, make([]byte, 0, len(jsonData)/2))

	if err := writeFileAtomic(fileName, data); err != nil {
		return 0, err
	}
	return len(snapshot.Slots), nil
}

// Import restores every slot contained in the snapshot file, overwriting
// current values. Slots absent from the snapshot are left untouched.
func Import(store RawStore, fileName string) (int, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	jsonData, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return 0, fmt.Errorf("decompress snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(jsonData, &snapshot); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	restored := 0
	for _, slot := range AllSlots() {
		raw, ok := snapshot.Slots[slot]
		if !ok {
			continue
		}
		if err := store.SaveRaw(slot, raw); err != nil {
			return restored, err
		}
		restored++
	}
	if restored == 0 {
		return 0, errors.New("snapshot contains no known slots")
	}
	return restored, nil
}

func writeFileAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}
