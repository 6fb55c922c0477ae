// Package jsonfile persists generation history as a single JSON document,
// rewritten atomically on every record.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/port"
)

// maxRecords bounds the file; old entries age out from the front.
const maxRecords = 200

type History struct {
	mu      sync.Mutex
	path    string
	records []domain.GenerationRecord
}

func NewHistory(dataDir string) (*History, error) {
	h := &History{path: filepath.Join(dataDir, "history.json")}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *History) load() error {
	data, err := os.ReadFile(h.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if err := json.Unmarshal(data, &h.records); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}
	return nil
}

func (h *History) Record(rec domain.GenerationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if len(h.records) > maxRecords {
		h.records = h.records[len(h.records)-maxRecords:]
	}
	return h.flush()
}

// Recent returns up to limit records for the effect, newest first.
func (h *History) Recent(effect domain.EffectKind, limit int) ([]domain.GenerationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []domain.GenerationRecord
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		if h.records[i].Effect == effect {
			out = append(out, h.records[i])
		}
	}
	return out, nil
}

// flush writes to a temp file and renames over the target, so a crash
// mid-write never truncates existing history.
func (h *History) flush() error {
	data, err := json.MarshalIndent(h.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

var _ port.GenerationHistory = (*History)(nil)
