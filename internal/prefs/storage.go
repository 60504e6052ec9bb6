package prefs

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/catalog"
)

// Persisted keys. Each is an independent string entry.
const (
	KeyTheme     = "attune.theme"
	KeyCompleted = "attune.onboarding_complete"
)

// KV is a durable, synchronous string store scoped to one visitor.
// Get reports ok=false for a missing key.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Storage is the persistence adapter: it mirrors the completion flag and the
// chosen theme into a KV. Writes are fire-and-forget; failures are logged and
// the in-memory state stays authoritative.
type Storage struct {
	kv  KV
	log *zap.Logger
}

// NewStorage wraps kv. A nil logger is replaced with a no-op logger.
func NewStorage(kv KV, log *zap.Logger) *Storage {
	if log == nil {
		log = zap.NewNop()
	}
	return &Storage{kv: kv, log: log}
}

// ReadTheme returns the persisted theme. Missing, unreadable, or unknown
// values all report ok=false.
func (s *Storage) ReadTheme() (catalog.Theme, bool) {
	raw, ok, err := s.kv.Get(KeyTheme)
	if err != nil {
		s.log.Warn("read persisted theme", zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	theme, valid := catalog.ParseTheme(raw)
	if !valid {
		s.log.Debug("ignoring unknown persisted theme", zap.String("value", raw))
		return "", false
	}
	return theme, true
}

// ReadCompletionFlag reports whether onboarding was completed. Only the
// literal "true" counts.
func (s *Storage) ReadCompletionFlag() bool {
	raw, ok, err := s.kv.Get(KeyCompleted)
	if err != nil {
		s.log.Warn("read persisted completion flag", zap.Error(err))
		return false
	}
	return ok && raw == "true"
}

// WriteTheme persists theme.
func (s *Storage) WriteTheme(theme catalog.Theme) {
	if err := s.kv.Set(KeyTheme, string(theme)); err != nil {
		s.log.Warn("persist theme", zap.String("theme", string(theme)), zap.Error(err))
	}
}

// WriteCompletionFlag persists the flag; false removes the entry.
func (s *Storage) WriteCompletionFlag(done bool) {
	var err error
	if done {
		err = s.kv.Set(KeyCompleted, "true")
	} else {
		err = s.kv.Delete(KeyCompleted)
	}
	if err != nil {
		s.log.Warn("persist completion flag", zap.Bool("completed", done), zap.Error(err))
	}
}

// Clear removes both persisted entries.
func (s *Storage) Clear() {
	for _, key := range []string{KeyTheme, KeyCompleted} {
		if err := s.kv.Delete(key); err != nil {
			s.log.Warn("clear persisted value", zap.String("key", key), zap.Error(err))
		}
	}
}

// MemoryKV is an in-process KV, used where no durable store is configured
// and in tests.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
