package terminology

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// =========== Fakes ===========

type fakeCache struct {
	store map[string][]SearchResult
	gets  int
	hits  int
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]SearchResult)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]SearchResult, bool) {
	f.gets++
	results, ok := f.store[key]
	if ok {
		f.hits++
	}
	return results, ok
}

func (f *fakeCache) Set(_ context.Context, key string, results []SearchResult) {
	f.sets++
	f.store[key] = results
}

var errUpstream = errors.New("upstream down")

type fakeExternal struct {
	tm2 []RawEntity
	bio []RawEntity
	err error
}

func (f *fakeExternal) FetchTM2(_ context.Context) ([]RawEntity, error) {
	return f.tm2, f.err
}

func (f *fakeExternal) FetchBiomedicine(_ context.Context, _ int) ([]RawEntity, error) {
	return f.bio, f.err
}

// =========== Tests ===========

func TestServiceSearch_CachesByRequestShape(t *testing.T) {
	store := newSeededStore(t)
	cache := newFakeCache()
	svc := NewService(store, nil, cache)

	first, err := svc.Search(context.Background(), "fever", "", nil, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache write, got %d", cache.sets)
	}

	second, err := svc.Search(context.Background(), "fever", "", nil, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("expected cache hit on repeat query, got %d hits", cache.hits)
	}
	if len(first) != len(second) {
		t.Errorf("cached results differ: %d vs %d", len(first), len(second))
	}

	// Different patient context must not reuse the cached entry.
	if _, err := svc.Search(context.Background(), "fever", "", &PatientContext{Age: 10}, 10); err != nil {
		t.Fatalf("search: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("patient-context query hit the plain cache entry")
	}
}

func TestServiceSearch_RejectsEmptyQuery(t *testing.T) {
	svc := NewService(newSeededStore(t), nil, nil)
	if _, err := svc.Search(context.Background(), "   ", "", nil, 10); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestServiceSearch_RejectsInvalidSystemFilter(t *testing.T) {
	svc := NewService(newSeededStore(t), nil, nil)
	if _, err := svc.Search(context.Background(), "fever", "icd10", nil, 10); err == nil {
		t.Fatal("expected error for invalid system filter")
	}
	if _, err := svc.Autocomplete(context.Background(), "fev", "icd10", 5); err == nil {
		t.Fatal("expected error for invalid autocomplete filter")
	}
}

func TestServiceSearch_ClampsLimit(t *testing.T) {
	store := newSeededStore(t)

	// load enough fever rows to exceed the cap
	var batch []TermRecord
	for i := 0; i < 150; i++ {
		batch = append(batch, TermRecord{
			ID:      fmt.Sprintf("NAMASTE_F%03d", i),
			Code:    fmt.Sprintf("F%03d", i),
			Display: fmt.Sprintf("Fever variant %d", i),
			System:  SystemNAMASTE,
		})
	}
	if _, err := store.ImportBatch(batch, ""); err != nil {
		t.Fatalf("import: %v", err)
	}

	svc := NewService(store, nil, nil)
	results, err := svc.Search(context.Background(), "fever", "", nil, 10000)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) > 100 {
		t.Errorf("limit not clamped to 100, got %d results", len(results))
	}
}

func TestServiceTranslate_ValidatesSystems(t *testing.T) {
	svc := NewService(newSeededStore(t), nil, nil)

	if _, err := svc.Translate("AY001", "icd10", "icd11_tm2"); err == nil {
		t.Error("expected error for invalid source system")
	}
	if _, err := svc.Translate("", "namaste", "icd11_tm2"); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestSyncExternal_ReplacesCollectionsByChapter(t *testing.T) {
	store := newSeededStore(t)
	external := &fakeExternal{
		tm2: []RawEntity{
			{ID: "e1", Code: "TM26.A", Title: "Synced TM2 disorder", Chapter: "26"},
		},
		bio: []RawEntity{
			{ID: "e2", Code: "2B33", Title: "Synced neoplasm", Chapter: "2"},
			{ID: "e3", Code: "TM26.B", Title: "Misrouted TM2 entity", Chapter: "26"},
		},
	}
	svc := NewService(store, external, nil)

	result, err := svc.SyncExternal(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !result.Synced {
		t.Fatalf("expected synced result, got %+v", result)
	}
	if result.TM2Count != 2 || result.BIOCount != 1 {
		t.Errorf("chapter routing wrong: tm2=%d bio=%d", result.TM2Count, result.BIOCount)
	}
	if result.Version == nil || result.Version.Version != "1.0.1" {
		t.Errorf("expected version 1.0.1, got %+v", result.Version)
	}

	rec, err := store.GetCodeDetails(SystemTM2, "TM26.B")
	if err != nil {
		t.Fatalf("misrouted entity not in TM2: %v", err)
	}
	if rec.MappingSource != MappingSourceExternalAuto {
		t.Errorf("synced record mapping source = %q", rec.MappingSource)
	}
}

func TestSyncExternal_UpstreamFailureReportedNotRaised(t *testing.T) {
	store := newSeededStore(t)
	svc := NewService(store, &fakeExternal{err: errUpstream}, nil)

	result, err := svc.SyncExternal(context.Background())
	if err != nil {
		t.Fatalf("upstream failure must not surface as an error: %v", err)
	}
	if result.Synced {
		t.Fatal("expected synced=false for a failed fetch")
	}
	if result.Message == "" {
		t.Error("expected a failure message")
	}
	if got := store.CurrentVersion().Version; got != "1.0.0" {
		t.Errorf("failed sync minted version %s", got)
	}
	if _, err := store.GetCodeDetails(SystemTM2, "TM26.0"); err != nil {
		t.Errorf("failed sync dropped existing data: %v", err)
	}
}

func TestSyncExternal_EmptyUpstreamReportedNotRaised(t *testing.T) {
	store := newSeededStore(t)
	svc := NewService(store, &fakeExternal{}, nil)

	result, err := svc.SyncExternal(context.Background())
	if err != nil {
		t.Fatalf("empty upstream must not surface as an error: %v", err)
	}
	if result.Synced {
		t.Fatal("expected synced=false for an empty payload")
	}
	if got := store.CurrentVersion().Version; got != "1.0.0" {
		t.Errorf("empty sync minted version %s", got)
	}
}

func TestSyncExternal_NotConfigured(t *testing.T) {
	svc := NewService(newSeededStore(t), nil, nil)
	if _, err := svc.SyncExternal(context.Background()); err == nil {
		t.Fatal("expected error when external authority is not configured")
	}
}

func TestServiceExport_ReturnsVersionedRecords(t *testing.T) {
	svc := NewService(newSeededStore(t), nil, nil)

	records, version, err := svc.Export("namaste")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected records")
	}
	if version.Version != "1.0.0" {
		t.Errorf("version = %s, want 1.0.0", version.Version)
	}

	if _, _, err := svc.Export("loinc"); err == nil {
		t.Error("expected error for unknown system")
	}
}
