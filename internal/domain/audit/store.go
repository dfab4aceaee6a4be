package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an explicit in-memory audit trail. Entries are append-only and
// listed newest first.
type Store struct {
	mu      sync.RWMutex
	entries []Entry

	now func() time.Time
}

// NewStore creates an empty audit trail.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Record appends one event to the trail and returns it.
func (s *Store) Record(userID, action, resource string, details map[string]any) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Details:   details,
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return entry
}

// List returns up to limit entries, newest first, optionally filtered by
// user and action.
func (s *Store) List(userID, action string, limit int) []Entry {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if userID != "" && e.UserID != userID {
			continue
		}
		if action != "" && e.Action != action {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len reports the number of recorded entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
