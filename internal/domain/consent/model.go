package consent

import "time"

// Status values for a consent record.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
	StatusExpired = "expired"
)

// Consent is one patient consent record gating access to clinical queries.
type Consent struct {
	ConsentID string    `json:"consent_id"`
	PatientID string    `json:"patient_id"`
	Purpose   string    `json:"purpose"`
	Scope     []string  `json:"scope"`
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
	Status    string    `json:"status"`
}

// ActiveAt reports whether the consent authorizes access at the given time.
func (c *Consent) ActiveAt(t time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	if !c.ValidFrom.IsZero() && t.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidTo.IsZero() && t.After(c.ValidTo) {
		return false
	}
	return true
}
