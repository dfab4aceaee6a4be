package audit

import "time"

// Entry is one recorded access event.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Details   map[string]any `json:"details,omitempty"`
}

// Actions recorded by the API surface.
const (
	ActionSearch    = "terminology_search"
	ActionTranslate = "code_translation"
	ActionLookup    = "code_lookup"
	ActionImport    = "dataset_import"
	ActionSync      = "external_sync"
	ActionConsent   = "consent_update"
)
