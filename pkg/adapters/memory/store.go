package memory

import (
	"log/slog"
	"maps"
	"sync"
)

// FlagStore implements ports.FlagStore in memory.
// Safe for concurrent use.
type FlagStore struct {
	flags  map[string]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewFlagStore creates an empty flag store. A nil logger disables unknown-flag warnings.
func NewFlagStore(logger *slog.Logger) *FlagStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FlagStore{flags: make(map[string]bool), logger: logger}
}

// Seed sets several flags at once.
func (s *FlagStore) Seed(flags map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.flags, flags)
}

// GetFlagState returns the flag value. Unknown names are false and logged.
func (s *FlagStore) GetFlagState(name string) bool {
	s.mu.RLock()
	value, ok := s.flags[name]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("unknown flag, defaulting to false", "flag", name)
	}
	return value
}

// SetFlagState stores the flag value.
func (s *FlagStore) SetFlagState(name string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = value
}

// ListFlags returns a copy of every known flag.
func (s *FlagStore) ListFlags() (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.flags), nil
}
