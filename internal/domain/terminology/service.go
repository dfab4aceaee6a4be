package terminology

import (
	"context"
	"fmt"
	"strings"
)

// ExternalTerminology fetches records from the upstream terminology
// authority. Implementations live in the platform layer; the zero-value
// service works without one.
type ExternalTerminology interface {
	FetchTM2(ctx context.Context) ([]RawEntity, error)
	FetchBiomedicine(ctx context.Context, limit int) ([]RawEntity, error)
}

// SearchCache caches ranked search results keyed by the full request shape.
// Implementations must be safe for concurrent use.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]SearchResult, bool)
	Set(ctx context.Context, key string, results []SearchResult)
}

// Service provides terminology search, translation, and dataset management
// operations over the in-memory store.
type Service struct {
	store    *Store
	external ExternalTerminology
	cache    SearchCache
}

// NewService creates a new terminology service. external and cache may be
// nil; search then always hits the index and sync is unavailable.
func NewService(store *Store, external ExternalTerminology, cache SearchCache) *Service {
	return &Service{store: store, external: external, cache: cache}
}

// Search ranks terms against the query, optionally restricted to one system
// and boosted by patient context. Results are served from cache when the
// exact request shape was ranked before.
func (s *Service) Search(ctx context.Context, query, system string, patient *PatientContext, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query parameter is required")
	}
	systemFilter, err := parseOptionalSystem(system)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	key := searchCacheKey(query, systemFilter, patient, limit)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	results := s.store.Search(query, systemFilter, patient, limit)
	if s.cache != nil {
		s.cache.Set(ctx, key, results)
	}
	return results, nil
}

// Autocomplete returns display suggestions for a typed prefix, optionally
// restricted to one system.
func (s *Service) Autocomplete(ctx context.Context, prefix, system string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, fmt.Errorf("query parameter is required")
	}
	systemFilter, err := parseOptionalSystem(system)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.store.Autocomplete(prefix, systemFilter, limit), nil
}

// parseOptionalSystem validates a system filter; empty means unfiltered.
func parseOptionalSystem(system string) (System, error) {
	if strings.TrimSpace(system) == "" {
		return "", nil
	}
	return ParseSystem(system)
}

// Translate resolves a code from one system into another.
func (s *Service) Translate(code, source, target string) (TranslateResult, error) {
	if strings.TrimSpace(code) == "" {
		return TranslateResult{}, fmt.Errorf("code is required")
	}
	src, err := ParseSystem(source)
	if err != nil {
		return TranslateResult{}, err
	}
	dst, err := ParseSystem(target)
	if err != nil {
		return TranslateResult{}, err
	}
	return s.store.Translate(code, src, dst)
}

// GetCode looks up one term by code or id within a system.
func (s *Service) GetCode(system, code string) (TermRecord, error) {
	sys, err := ParseSystem(system)
	if err != nil {
		return TermRecord{}, err
	}
	if strings.TrimSpace(code) == "" {
		return TermRecord{}, fmt.Errorf("code is required")
	}
	return s.store.GetCodeDetails(sys, code)
}

// ImportRecords ingests a parsed batch into the store and mints a new
// dataset version.
func (s *Service) ImportRecords(records []TermRecord, description string) (DatasetVersion, error) {
	if description == "" {
		description = fmt.Sprintf("Imported %d records", len(records))
	}
	return s.store.ImportBatch(records, description)
}

// Versions returns the dataset version history, oldest first.
func (s *Service) Versions() []DatasetVersion {
	return s.store.ListVersions()
}

// Export returns one system's full dataset along with the current version.
func (s *Service) Export(system string) ([]TermRecord, DatasetVersion, error) {
	sys, err := ParseSystem(system)
	if err != nil {
		return nil, DatasetVersion{}, err
	}
	return s.store.Records(sys), s.store.CurrentVersion(), nil
}

// Mappings lists the stored code equivalences from source into target.
func (s *Service) Mappings(source, target string) ([]ConceptMapping, error) {
	src, err := ParseSystem(source)
	if err != nil {
		return nil, err
	}
	dst, err := ParseSystem(target)
	if err != nil {
		return nil, err
	}
	if src == dst {
		return nil, fmt.Errorf("source and target system are both %q", src)
	}
	return s.store.Mappings(src, dst), nil
}

// Counts reports record counts per system.
func (s *Service) Counts() map[System]int {
	return s.store.Counts()
}

// searchCacheKey encodes the full request shape so distinct filters and
// patient contexts never collide.
func searchCacheKey(query string, systemFilter System, patient *PatientContext, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "search:%s:%s:%d", strings.ToLower(strings.TrimSpace(query)), systemFilter, limit)
	if patient != nil {
		fmt.Fprintf(&b, ":age=%d:gender=%s:cond=%s:symp=%s",
			patient.Age,
			strings.ToLower(patient.Gender),
			strings.ToLower(strings.Join(patient.ExistingConditions, ",")),
			strings.ToLower(strings.Join(patient.Symptoms, ",")))
	}
	return b.String()
}
