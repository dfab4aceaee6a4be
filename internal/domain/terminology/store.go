package terminology

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// snapshot is one immutable, internally consistent view of the datasets:
// the raw collections, the derived search index, the lookup maps, and the
// version log that produced them. Readers get a snapshot pointer and work
// against it without further synchronization; mutations build a fresh
// snapshot and swap the pointer.
type snapshot struct {
	namaste []TermRecord
	tm2     []TermRecord
	bio     []TermRecord

	rows   []IndexRow
	byCode map[System]map[string]*TermRecord
	byID   map[System]map[string]*TermRecord

	versions []DatasetVersion
}

// current returns the latest dataset version, or a zero value before any
// data has been loaded.
func (s *snapshot) current() DatasetVersion {
	if len(s.versions) == 0 {
		return DatasetVersion{}
	}
	return s.versions[len(s.versions)-1]
}

// Store holds the three in-memory dataset collections and their derived
// search index. All mutations are serialized on mu and publish a new
// snapshot atomically; reads never block and never observe a partially
// applied mutation.
type Store struct {
	mu   sync.Mutex // serializes mutations only
	snap atomic.Pointer[snapshot]

	now func() time.Time
}

// NewStore returns an empty store with an empty version log.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.snap.Store(newSnapshot(nil, nil, nil, nil))
	return s
}

func newSnapshot(namaste, tm2, bio []TermRecord, versions []DatasetVersion) *snapshot {
	snap := &snapshot{
		namaste:  namaste,
		tm2:      tm2,
		bio:      bio,
		rows:     buildIndex(namaste, tm2, bio),
		byCode:   make(map[System]map[string]*TermRecord, 3),
		byID:     make(map[System]map[string]*TermRecord, 3),
		versions: versions,
	}
	index := func(system System, records []TermRecord) {
		codes := make(map[string]*TermRecord, len(records))
		ids := make(map[string]*TermRecord, len(records))
		for i := range records {
			rec := &records[i]
			codes[rec.Code] = rec
			ids[rec.ID] = rec
		}
		snap.byCode[system] = codes
		snap.byID[system] = ids
	}
	index(SystemNAMASTE, namaste)
	index(SystemTM2, tm2)
	index(SystemBIO, bio)
	return snap
}

// ImportBatch appends records to their respective system collections as one
// all-or-nothing batch. Every record is validated before any is applied; on
// success a new dataset version is minted, stamped onto the imported records,
// and returned.
func (s *Store) ImportBatch(records []TermRecord, description string) (DatasetVersion, error) {
	if len(records) == 0 {
		return DatasetVersion{}, fmt.Errorf("import batch is empty")
	}
	systems := make(map[System]bool)
	for i, rec := range records {
		if rec.Code == "" || rec.ID == "" {
			return DatasetVersion{}, fmt.Errorf("record %d: code and id are required", i)
		}
		if _, err := ParseSystem(string(rec.System)); err != nil {
			return DatasetVersion{}, fmt.Errorf("record %d: %w", i, err)
		}
		systems[rec.System] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	version := s.mintVersion(prev, systemList(systems), description)

	namaste := cloneRecords(prev.namaste)
	tm2 := cloneRecords(prev.tm2)
	bio := cloneRecords(prev.bio)
	for _, rec := range records {
		rec.Version = version.Version
		rec.EffectiveDate = version.EffectiveDate
		switch rec.System {
		case SystemNAMASTE:
			namaste = append(namaste, rec)
		case SystemTM2:
			tm2 = append(tm2, rec)
		case SystemBIO:
			bio = append(bio, rec)
		}
	}

	versions := append(cloneVersions(prev.versions), version)
	s.snap.Store(newSnapshot(namaste, tm2, bio, versions))
	return version, nil
}

// ReplaceExternalSystems atomically swaps the TM2 and biomedicine
// collections with freshly synced data, leaving the source collection
// untouched. Either both collections are replaced or neither is.
func (s *Store) ReplaceExternalSystems(tm2, bio []TermRecord, description string) (DatasetVersion, error) {
	for i, rec := range tm2 {
		if rec.Code == "" || rec.ID == "" {
			return DatasetVersion{}, fmt.Errorf("tm2 record %d: code and id are required", i)
		}
	}
	for i, rec := range bio {
		if rec.Code == "" || rec.ID == "" {
			return DatasetVersion{}, fmt.Errorf("bio record %d: code and id are required", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	version := s.mintVersion(prev, []System{SystemTM2, SystemBIO}, description)

	newTM2 := cloneRecords(tm2)
	for i := range newTM2 {
		newTM2[i].System = SystemTM2
		newTM2[i].Version = version.Version
		newTM2[i].EffectiveDate = version.EffectiveDate
	}
	newBIO := cloneRecords(bio)
	for i := range newBIO {
		newBIO[i].System = SystemBIO
		newBIO[i].Version = version.Version
		newBIO[i].EffectiveDate = version.EffectiveDate
	}

	versions := append(cloneVersions(prev.versions), version)
	s.snap.Store(newSnapshot(cloneRecords(prev.namaste), newTM2, newBIO, versions))
	return version, nil
}

// mintVersion produces the next monotonic version label. Callers must hold mu.
func (s *Store) mintVersion(prev *snapshot, systems []System, description string) DatasetVersion {
	return DatasetVersion{
		Version:       fmt.Sprintf("1.0.%d", len(prev.versions)),
		EffectiveDate: s.now().UTC(),
		Systems:       systems,
		Description:   description,
	}
}

// GetCodeDetails resolves a term by code, falling back to id, within one
// system. Returns ErrNotFound when neither resolves.
func (s *Store) GetCodeDetails(system System, code string) (TermRecord, error) {
	snap := s.snap.Load()
	if rec, ok := snap.byCode[system][code]; ok {
		return *rec, nil
	}
	if rec, ok := snap.byID[system][code]; ok {
		return *rec, nil
	}
	return TermRecord{}, fmt.Errorf("code %q in system %q: %w", code, system, ErrNotFound)
}

// ListVersions returns the full version history, oldest first.
func (s *Store) ListVersions() []DatasetVersion {
	snap := s.snap.Load()
	out := make([]DatasetVersion, len(snap.versions))
	copy(out, snap.versions)
	return out
}

// CurrentVersion returns the latest dataset version.
func (s *Store) CurrentVersion() DatasetVersion {
	return s.snap.Load().current()
}

// Records returns a copy of one system's full collection, in insertion order.
func (s *Store) Records(system System) []TermRecord {
	snap := s.snap.Load()
	switch system {
	case SystemNAMASTE:
		return cloneRecords(snap.namaste)
	case SystemTM2:
		return cloneRecords(snap.tm2)
	case SystemBIO:
		return cloneRecords(snap.bio)
	}
	return nil
}

// Counts reports the number of records per system.
func (s *Store) Counts() map[System]int {
	snap := s.snap.Load()
	return map[System]int{
		SystemNAMASTE: len(snap.namaste),
		SystemTM2:     len(snap.tm2),
		SystemBIO:     len(snap.bio),
	}
}

// systemList renders a system set in canonical order.
func systemList(set map[System]bool) []System {
	var out []System
	for _, sys := range []System{SystemNAMASTE, SystemTM2, SystemBIO} {
		if set[sys] {
			out = append(out, sys)
		}
	}
	return out
}

func cloneRecords(records []TermRecord) []TermRecord {
	out := make([]TermRecord, len(records))
	copy(out, records)
	return out
}

func cloneVersions(versions []DatasetVersion) []DatasetVersion {
	out := make([]DatasetVersion, 0, len(versions)+1)
	return append(out, versions...)
}
