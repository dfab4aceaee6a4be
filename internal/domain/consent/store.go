package consent

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an explicit in-memory consent registry.
type Store struct {
	mu       sync.RWMutex
	consents map[string]*Consent

	now func() time.Time
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{consents: make(map[string]*Consent), now: time.Now}
}

// Create registers a consent record. A missing id is generated; a missing
// status defaults to active.
func (s *Store) Create(c Consent) (Consent, error) {
	if c.PatientID == "" {
		return Consent{}, fmt.Errorf("patient_id is required")
	}
	if c.ConsentID == "" {
		c.ConsentID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.consents[c.ConsentID]; exists {
		return Consent{}, fmt.Errorf("consent %q already exists", c.ConsentID)
	}
	s.consents[c.ConsentID] = &c
	return c, nil
}

// Get returns a consent by id.
func (s *Store) Get(consentID string) (Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consents[consentID]
	if !ok {
		return Consent{}, fmt.Errorf("consent %q not found", consentID)
	}
	return *c, nil
}

// Verify reports whether the consent exists and is currently active.
func (s *Store) Verify(consentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consents[consentID]
	return ok && c.ActiveAt(s.now())
}
