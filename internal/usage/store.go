package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey names the persisted ledger record. The on-disk file is this
// key plus a .json extension.
const StorageKey = "digital_resume_usage_v1"

// Record is the persisted ledger state. Dates are calendar days in the
// local timezone, formatted as 2006-01-02.
type Record struct {
	LastResetDate       string `json:"lastResetDate"`
	DailyCreations      int    `json:"dailyCreations"`
	CurrentProjectEdits int    `json:"currentProjectEdits"`
	PurchasedEdits      int    `json:"purchasedEdits"`
}

// Store persists the single ledger record. Load returns (nil, nil) when no
// record has been saved yet.
type Store interface {
	Load() (*Record, error)
	Save(*Record) error
}

// FileStore persists the record as a JSON file under a directory.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore rooted at dir, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create usage directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, StorageKey+".json")}, nil
}

// Load reads the persisted record.
func (s *FileStore) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read usage record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse usage record: %w", err)
	}
	return &record, nil
}

// Save writes the record, replacing any previous one.
func (s *FileStore) Save(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode usage record: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write usage record: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.Mutex
	record *Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored record.
func (s *MemoryStore) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, nil
	}
	copy := *s.record
	return &copy, nil
}

// Save stores a copy of the record.
func (s *MemoryStore) Save(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *record
	s.record = &copy
	return nil
}
