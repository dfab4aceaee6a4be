package terminology

import (
	"sort"
	"strings"
)

const (
	// relevanceFloor discards weak fuzzy hits; results must score above it.
	relevanceFloor = 0.3

	boostAge          = 2.5
	boostGender       = 2.5
	boostCondition    = 3.0
	boostComplication = 4.0
	boostRelated      = 2.5
	boostSymptom      = 2.0
)

var pediatricMarkers = []string{"pediatric", "child", "infant", "juvenile"}

var geriatricMarkers = []string{"geriatric", "elderly", "senior", "age-related"}

var genderMarkers = map[string][]string{
	"female": {"female", "woman", "women", "gynec", "obstet", "menstrual", "pregnancy"},
	"male":   {"male", "man", "men", "andro", "prostate", "testicular"},
}

// complicationMarkers signal that a term describes a sequela of an existing
// condition rather than the condition itself.
var complicationMarkers = []string{
	"complication", "secondary", "due to", "caused by",
	"associated with", "related to", "result of",
}

// relatedTerms buckets each common chronic condition with the vocabulary a
// clinically adjacent term would carry. Buckets are keyed by the condition's
// shortest name; relatedMarkers matches keys as substrings so qualified
// phrasings like "diabetes mellitus" still land in the diabetes bucket.
var relatedTerms = map[string][]string{
	"diabetes":     {"diabetic", "madumeha", "sugar", "glucose", "hyperglycem", "insulin"},
	"hypertension": {"hypertensive", "high blood pressure", "htn", "bp"},
	"fever":        {"jwara", "pyrexia", "temperature", "febrile"},
	"arthritis":    {"joint", "amavata", "rheumat", "arthralgia"},
	"asthma":       {"shwasa", "breathing", "wheez", "bronch"},
	"tb":           {"tuberculosis", "rajayakshma", "kshaya", "mycobacter"},
	"anemia":       {"pandu", "hemoglobin", "iron", "hemat"},
}

// relatedTermKeys fixes the iteration order over relatedTerms.
var relatedTermKeys = []string{
	"anemia", "arthritis", "asthma", "diabetes", "fever", "hypertension", "tb",
}

// relatedMarkers collects the vocabulary of every bucket whose key appears
// inside the supplied condition.
func relatedMarkers(condition string) []string {
	var markers []string
	for _, key := range relatedTermKeys {
		if strings.Contains(condition, key) {
			markers = append(markers, relatedTerms[key]...)
		}
	}
	return markers
}

// Search ranks every indexed term against the query and returns at most
// limit results, best first. The query is abbreviation-normalized and
// synonym-expanded before scoring; a non-empty systemFilter restricts
// scoring to that system's rows, and optional patient context boosts scores
// multiplicatively, capped at 1.0. Results scoring at or below the
// relevance floor are dropped, and duplicate ids keep their maximum score.
func (s *Store) Search(query string, systemFilter System, patient *PatientContext, limit int) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}
	variants := ExpandSynonyms(NormalizeAbbreviation(query))

	snap := s.snap.Load()
	results := make([]SearchResult, 0, limit)
	for i := range snap.rows {
		row := &snap.rows[i]
		if systemFilter != "" && row.System != systemFilter {
			continue
		}
		score := scoreRow(row, variants)
		if patient != nil {
			score = applyContextBoosts(score, row, patient)
		}
		if score <= relevanceFloor {
			continue
		}
		results = append(results, resultFromRow(row, score))
	}

	results = dedupeByID(results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Autocomplete returns up to limit suggestions whose display text or any
// synonym contains the typed prefix, case-insensitive, in index order. A
// non-empty systemFilter restricts suggestions to that system.
func (s *Store) Autocomplete(prefix string, systemFilter System, limit int) []SearchResult {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return nil
	}
	snap := s.snap.Load()
	var out []SearchResult
	for i := range snap.rows {
		row := &snap.rows[i]
		if systemFilter != "" && row.System != systemFilter {
			continue
		}
		if !autocompleteMatch(row, prefix) {
			continue
		}
		out = append(out, resultFromRow(row, 1.0))
		if len(out) == limit {
			break
		}
	}
	return out
}

func autocompleteMatch(row *IndexRow, prefix string) bool {
	if strings.Contains(strings.ToLower(row.Display), prefix) {
		return true
	}
	for _, syn := range row.Synonyms {
		if strings.Contains(strings.ToLower(syn), prefix) {
			return true
		}
	}
	return false
}

// scoreRow computes the best lexical score of any query variant against the
// row. An exact case-insensitive substring hit on the display or a synonym
// scores 1.0 outright; otherwise the best partial fuzzy score across
// display, synonyms, and definition stands.
func scoreRow(row *IndexRow, variants []string) float64 {
	display := strings.ToLower(row.Display)
	definition := strings.ToLower(row.Definition)

	best := 0.0
	for _, variant := range variants {
		if strings.Contains(display, variant) {
			return 1.0
		}
		exact := false
		for _, syn := range row.Synonyms {
			if strings.Contains(strings.ToLower(syn), variant) {
				exact = true
				break
			}
		}
		if exact {
			return 1.0
		}

		score := PartialFuzzyScore(variant, display)
		for _, syn := range row.Synonyms {
			if s := PartialFuzzyScore(variant, syn); s > score {
				score = s
			}
		}
		if definition != "" {
			if s := PartialFuzzyScore(variant, definition); s > score {
				score = s
			}
		}
		if score > best {
			best = score
		}
	}
	return best
}

// applyContextBoosts multiplies the base score by every boost the patient
// context justifies, then caps the result at 1.0. Every condition tests the
// row's full search text, so synonyms, dosha, and category count. Age and
// gender boosts apply at most once each; condition boosts apply once per
// matching existing condition; the symptom boost applies at most once.
func applyContextBoosts(score float64, row *IndexRow, patient *PatientContext) float64 {
	text := strings.ToLower(row.SearchText)

	switch {
	case patient.Age > 0 && patient.Age < 18:
		if containsAny(text, pediatricMarkers) {
			score *= boostAge
		}
	case patient.Age > 65:
		if containsAny(text, geriatricMarkers) {
			score *= boostAge
		}
	}

	if markers, ok := genderMarkers[strings.ToLower(patient.Gender)]; ok {
		if containsAny(text, markers) {
			score *= boostGender
		}
	}

	for _, condition := range patient.ExistingConditions {
		cond := strings.ToLower(strings.TrimSpace(condition))
		if cond == "" {
			continue
		}
		switch {
		case strings.Contains(text, cond):
			if containsAny(text, complicationMarkers) {
				score *= boostComplication
			} else {
				score *= boostCondition
			}
		case containsAny(text, relatedMarkers(cond)):
			score *= boostRelated
		}
	}

	for _, symptom := range patient.Symptoms {
		sym := strings.ToLower(strings.TrimSpace(symptom))
		if sym != "" && strings.Contains(text, sym) {
			score *= boostSymptom
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// dedupeByID collapses duplicate ids keeping the maximum score seen, with
// first-occurrence positions preserved.
func dedupeByID(results []SearchResult) []SearchResult {
	seen := make(map[string]int, len(results))
	out := results[:0]
	for _, res := range results {
		if idx, ok := seen[res.ID]; ok {
			if res.Score > out[idx].Score {
				out[idx].Score = res.Score
			}
			continue
		}
		seen[res.ID] = len(out)
		out = append(out, res)
	}
	return out
}

// resultFromRow enriches a raw index row into an API result: source rows
// carry both cross-system mappings, TM2 rows carry their biomedicine
// mapping, and mapped rows report the fixed mapping confidence.
func resultFromRow(row *IndexRow, score float64) SearchResult {
	res := SearchResult{
		ID:            row.ID,
		Code:          row.Code,
		Display:       row.Display,
		Definition:    row.Definition,
		System:        row.System,
		Score:         score,
		Version:       row.Version,
		EffectiveDate: row.EffectiveDate,
	}

	mapped := make(map[string]string)
	if row.System == SystemNAMASTE {
		if row.MappedTM2 != "" {
			mapped[string(SystemTM2)] = row.MappedTM2
		}
		if row.MappedBIO != "" {
			mapped[string(SystemBIO)] = row.MappedBIO
		}
	}
	if row.System == SystemTM2 && row.MappedBIO != "" {
		mapped[string(SystemBIO)] = row.MappedBIO
	}
	if len(mapped) > 0 {
		res.MappedCodes = mapped
		conf := 0.9
		res.MappingConfidence = &conf
	}
	return res
}
