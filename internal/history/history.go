// Package history keeps the append-only, capacity-bounded log of past
// translations. The store is the sole owner of the persisted state.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vaani/pkg/logger"
	"vaani/pkg/model"

	"go.uber.org/zap"
)

// MaxEntries caps the log; the oldest entry is evicted on overflow.
const MaxEntries = 50

// StorageName is the fixed key history is persisted under.
const StorageName = "translation_history.json"

// Persistence is the durable backing of the store.
type Persistence interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
}

// Store holds entries most-recent-first.
type Store struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
	persist Persistence
	lastID  int64
}

// NewStore creates a store and restores persisted entries. Corrupt or
// unreadable stored data is treated as empty history; loading never fails.
func NewStore(persist Persistence) *Store {
	s := &Store{persist: persist}
	s.load()
	return s
}

func (s *Store) load() {
	if s.persist == nil {
		return
	}

	data, err := s.persist.Load()
	if err != nil {
		logger.Debug("No stored history", zap.Error(err))
		return
	}

	var entries []model.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("Stored history is corrupt, starting empty", zap.Error(err))
		return
	}

	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	s.entries = entries
	for _, e := range entries {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}
}

// Append records a completed translation at the front and persists the
// truncated log. Entry IDs increase strictly with append order.
func (s *Store) Append(result model.TranslationResult, sourceLanguage, targetLanguage string) model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	entry := model.HistoryEntry{
		ID:             id,
		Original:       result.Original,
		Translated:     result.Translated,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		Timestamp:      time.Now(),
	}

	s.entries = append([]model.HistoryEntry{entry}, s.entries...)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}

	s.save()
	return entry
}

func (s *Store) save() {
	if s.persist == nil {
		return
	}
	data, err := json.Marshal(s.entries)
	if err != nil {
		logger.Warn("Failed to encode history", zap.Error(err))
		return
	}
	if err := s.persist.Save(data); err != nil {
		logger.Warn("Failed to persist history", zap.Error(err))
	}
}

// Entries returns the log most-recent-first.
func (s *Store) Entries() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.HistoryEntry(nil), s.entries...)
}

// Select re-surfaces a past entry as the current result. Pure read: the
// log's length and order never change.
func (s *Store) Select(id int64) (model.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return model.HistoryEntry{}, false
}

// Clear empties both in-memory and durable state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	if s.persist != nil {
		if err := s.persist.Clear(); err != nil {
			logger.Warn("Failed to clear persisted history", zap.Error(err))
		}
	}
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// FilePersistence stores history as one JSON file under a fixed name in
// dir.
type FilePersistence struct {
	path string
}

func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &FilePersistence{path: filepath.Join(dir, StorageName)}, nil
}

func (f *FilePersistence) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f *FilePersistence) Save(data []byte) error {
	return os.WriteFile(f.path, data, 0o644)
}

func (f *FilePersistence) Clear() error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
