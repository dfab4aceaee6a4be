package terminology

import (
	"context"
	"fmt"
)

// biomedicineFetchLimit bounds one sync's biomedicine pull.
const biomedicineFetchLimit = 50

// SyncResult summarizes one sync attempt. An unavailable or empty upstream
// is a normal outcome reported as Synced=false, not an error.
type SyncResult struct {
	Synced   bool            `json:"synced"`
	Message  string          `json:"message,omitempty"`
	Version  *DatasetVersion `json:"version,omitempty"`
	TM2Count int             `json:"tm2_count"`
	BIOCount int             `json:"bio_count"`
}

// SyncExternal refreshes the TM2 and biomedicine collections from the
// upstream terminology authority. Entities are routed by chapter: chapter 26
// lands in TM2, everything else in biomedicine. The swap is atomic; an
// upstream failure or empty payload leaves the store untouched and comes
// back as Synced=false.
func (s *Service) SyncExternal(ctx context.Context) (SyncResult, error) {
	if s.external == nil {
		return SyncResult{}, fmt.Errorf("external terminology authority is not configured")
	}

	tm2Entities, err := s.external.FetchTM2(ctx)
	if err != nil {
		return SyncResult{Synced: false, Message: fmt.Sprintf("fetch tm2: %v", err)}, nil
	}
	bioEntities, err := s.external.FetchBiomedicine(ctx, biomedicineFetchLimit)
	if err != nil {
		return SyncResult{Synced: false, Message: fmt.Sprintf("fetch biomedicine: %v", err)}, nil
	}

	var tm2, bio []TermRecord
	for _, e := range append(tm2Entities, bioEntities...) {
		if e.Code == "" || e.ID == "" {
			continue
		}
		rec := TermRecordFromEntity(e)
		if rec.System == SystemTM2 {
			tm2 = append(tm2, rec)
		} else {
			bio = append(bio, rec)
		}
	}
	if len(tm2) == 0 && len(bio) == 0 {
		return SyncResult{Synced: false, Message: "external sync returned no usable entities"}, nil
	}

	description := fmt.Sprintf("External sync: %d TM2, %d biomedicine records", len(tm2), len(bio))
	version, err := s.store.ReplaceExternalSystems(tm2, bio, description)
	if err != nil {
		return SyncResult{}, err
	}
	return SyncResult{
		Synced:   true,
		Version:  &version,
		TM2Count: len(tm2),
		BIOCount: len(bio),
	}, nil
}
