package terminology

import "strings"

// buildIndex derives the unified search index from the three dataset
// collections: one row per term across all systems, each carrying the
// concatenated searchable text blob and cross-system mapping pointers.
// Deterministic and total; empty collections yield an empty index.
func buildIndex(namaste, tm2, bio []TermRecord) []IndexRow {
	rows := make([]IndexRow, 0, len(namaste)+len(tm2)+len(bio))

	for _, rec := range namaste {
		rows = append(rows, IndexRow{
			ID:            rec.ID,
			Code:          rec.Code,
			Display:       rec.Display,
			Definition:    rec.Definition,
			System:        SystemNAMASTE,
			Synonyms:      rec.Synonyms,
			MappedTM2:     rec.MappedTM2Code,
			MappedBIO:     rec.MappedBIOCode,
			SearchText:    joinSearchText(rec.Display, strings.Join(rec.Synonyms, " "), rec.Definition, rec.Dosha, rec.Category),
			Version:       rec.Version,
			EffectiveDate: rec.EffectiveDate,
		})
	}

	for _, rec := range tm2 {
		rows = append(rows, IndexRow{
			ID:            rec.ID,
			Code:          rec.Code,
			Display:       rec.Display,
			Definition:    rec.Definition,
			System:        SystemTM2,
			MappedBIO:     rec.MappedBIOCode,
			SearchText:    joinSearchText(rec.Display, rec.Definition, rec.Category),
			Version:       rec.Version,
			EffectiveDate: rec.EffectiveDate,
		})
	}

	for _, rec := range bio {
		rows = append(rows, IndexRow{
			ID:            rec.ID,
			Code:          rec.Code,
			Display:       rec.Display,
			Definition:    rec.Definition,
			System:        SystemBIO,
			SearchText:    joinSearchText(rec.Display, rec.Definition, rec.Category),
			Version:       rec.Version,
			EffectiveDate: rec.EffectiveDate,
		})
	}

	return rows
}

// joinSearchText concatenates the non-empty parts with single spaces.
func joinSearchText(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
