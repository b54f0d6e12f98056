package finclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var _ TokenStore = &FileTokenStore{}
var _ TokenStore = &MemoryTokenStore{}

// tokenRecord is the on-disk shape of the persisted slot.
type tokenRecord struct {
	AccessToken string    `json:"access_token"`
	RefreshedAt time.Time `json:"refreshed_at,omitempty"`
}

// MemoryTokenStore keeps the token for the lifetime of the process only.
type MemoryTokenStore struct {
	mu          sync.RWMutex
	token       string
	refreshedAt time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Read() (string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.refreshedAt
}

func (s *MemoryTokenStore) Write(token string, refreshedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.refreshedAt = refreshedAt
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.refreshedAt = time.Time{}
}

// FileTokenStore persists the token slot to a single JSON file so a
// restarted process can re-establish its session before any network call.
// Storage failures degrade to memory-only behavior; callers never see an
// error from this type.
type FileTokenStore struct {
	mu          sync.RWMutex
	path        string
	logger      Logger
	token       string
	refreshedAt time.Time
	loaded      bool
}

// NewFileTokenStore returns a store backed by the file at path. The file is
// read lazily on first access.
func NewFileTokenStore(path string, logger Logger) *FileTokenStore {
	if logger == nil {
		logger = defLogger{}
	}
	return &FileTokenStore{
		path:   path,
		logger: logger,
	}
}

func (s *FileTokenStore) Read() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return s.token, s.refreshedAt
}

func (s *FileTokenStore) Write(token string, refreshedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.refreshedAt = refreshedAt
	s.loaded = true
	s.persistLocked()
}

func (s *FileTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.refreshedAt = time.Time{}
	s.loaded = true

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("token store could not remove %s: %v", s.path, err)
	}
}

func (s *FileTokenStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("token store could not read %s: %v", s.path, err)
		}
		return
	}

	var rec tokenRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn("token store could not decode %s: %v", s.path, err)
		return
	}

	s.token = rec.AccessToken
	s.refreshedAt = rec.RefreshedAt
}

// persistLocked writes through a temp file and rename so a crash mid-write
// never leaves a truncated record behind.
func (s *FileTokenStore) persistLocked() {
	raw, err := json.Marshal(tokenRecord{
		AccessToken: s.token,
		RefreshedAt: s.refreshedAt,
	})
	if err != nil {
		s.logger.Warn("token store could not encode record: %v", err)
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.logger.Warn("token store could not create %s: %v", dir, err)
		return
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		s.logger.Warn("token store could not stage write: %v", err)
		return
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.logger.Warn("token store could not write %s: %v", s.path, err)
		return
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		s.logger.Warn("token store could not flush %s: %v", s.path, err)
		return
	}

	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		s.logger.Warn("token store could not chmod %s: %v", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		s.logger.Warn("token store could not replace %s: %v", s.path, err)
	}
}
