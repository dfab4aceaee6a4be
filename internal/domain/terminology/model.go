package terminology

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a code, id, or mapping does not resolve.
// Absence is a normal negative result, never a panic.
var ErrNotFound = errors.New("not found")

// System identifies one of the three terminology code systems served by the
// engine.
type System string

const (
	// SystemNAMASTE is the traditional-medicine source nomenclature.
	SystemNAMASTE System = "namaste"
	// SystemTM2 is the WHO ICD-11 Traditional Medicine Module 2 (chapter 26).
	SystemTM2 System = "icd11_tm2"
	// SystemBIO is the WHO ICD-11 biomedicine hierarchy (all other chapters).
	SystemBIO System = "icd11_bio"
)

// ParseSystem validates a wire-format system value. Malformed values are
// rejected at the boundary before any lookup happens.
func ParseSystem(s string) (System, error) {
	switch System(s) {
	case SystemNAMASTE, SystemTM2, SystemBIO:
		return System(s), nil
	}
	return "", fmt.Errorf("invalid system %q: must be one of %q, %q, %q",
		s, SystemNAMASTE, SystemTM2, SystemBIO)
}

// Mapping provenance values for TermRecord.MappingSource.
const (
	MappingSourceManual       = "manual"
	MappingSourceExternalAuto = "external_auto"
	MappingSourceUnmapped     = "unmapped"
)

// TermRecord is one entry in a system's dataset. Code and ID are each unique
// within one system's collection. Cross-mapping codes may dangle; dangling
// pointers surface as NotFound at translation time, not at ingestion.
type TermRecord struct {
	ID         string   `json:"id"`
	Code       string   `json:"code"`
	Display    string   `json:"display"`
	Definition string   `json:"definition,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
	System     System   `json:"system"`

	// Source-system specific classification fields.
	Dosha    string `json:"dosha,omitempty"`
	Category string `json:"category,omitempty"`

	MappedTM2Code     string  `json:"mapped_tm2_code,omitempty"`
	MappedBIOCode     string  `json:"mapped_bio_code,omitempty"`
	MappingConfidence float64 `json:"mapping_confidence,omitempty"`
	MappingSource     string  `json:"mapping_source,omitempty"`

	Version       string    `json:"version,omitempty"`
	EffectiveDate time.Time `json:"effective_date,omitempty"`
}

// DatasetVersion records one ingestion or sync event. Versions are
// append-only and ordered; the current version is always the last element.
type DatasetVersion struct {
	Version       string    `json:"version"`
	EffectiveDate time.Time `json:"effective_date"`
	Systems       []System  `json:"systems"`
	Description   string    `json:"description"`
}

// IndexRow is the flattened search-time projection of a TermRecord. It is
// owned by the index builder, rebuilt wholesale on every dataset mutation,
// and never written to by readers.
type IndexRow struct {
	ID            string
	Code          string
	Display       string
	Definition    string
	System        System
	Synonyms      []string
	MappedTM2     string
	MappedBIO     string
	SearchText    string
	Version       string
	EffectiveDate time.Time
}

// PatientContext carries optional patient hints used for context-aware
// result boosting.
type PatientContext struct {
	Age                int      `json:"age,omitempty"`
	Gender             string   `json:"gender,omitempty"`
	ExistingConditions []string `json:"existing_conditions,omitempty"`
	Symptoms           []string `json:"symptoms,omitempty"`
}

// SearchResult is one ranked hit from the unified index.
type SearchResult struct {
	ID                string            `json:"id"`
	Code              string            `json:"code"`
	Display           string            `json:"display"`
	Definition        string            `json:"definition,omitempty"`
	System            System            `json:"system"`
	Score             float64           `json:"score"`
	MappingConfidence *float64          `json:"mapping_confidence,omitempty"`
	MappedCodes       map[string]string `json:"mapped_codes,omitempty"`
	Version           string            `json:"version,omitempty"`
	EffectiveDate     time.Time         `json:"effective_date,omitempty"`
}

// TranslateResult is the outcome of resolving a code from one system into
// another, with the propagated confidence of the mapping path.
type TranslateResult struct {
	SourceCode    string  `json:"source_code"`
	SourceDisplay string  `json:"source_display"`
	TargetCode    string  `json:"target_code"`
	TargetDisplay string  `json:"target_display"`
	Confidence    float64 `json:"confidence"`
	SourceVersion string  `json:"source_version,omitempty"`
	TargetVersion string  `json:"target_version,omitempty"`
}

// RawEntity is the shape of a record returned by the external terminology
// authority. The engine only ever maps it into a TermRecord; chapter "26"
// identifies the traditional-medicine hierarchy.
type RawEntity struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Title      string `json:"title"`
	Definition string `json:"definition"`
	Chapter    string `json:"chapter"`
}

// tm2Chapter is the ICD-11 chapter housing the Traditional Medicine Module.
const tm2Chapter = "26"

// TermRecordFromEntity converts an external raw entity into a TermRecord for
// the system implied by its chapter.
func TermRecordFromEntity(e RawEntity) TermRecord {
	system := SystemBIO
	if e.Chapter == tm2Chapter {
		system = SystemTM2
	}
	return TermRecord{
		ID:            e.ID,
		Code:          e.Code,
		Display:       e.Title,
		Definition:    e.Definition,
		System:        system,
		MappingSource: MappingSourceExternalAuto,
	}
}
