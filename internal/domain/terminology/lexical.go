package terminology

import (
	"sort"
	"strings"
)

// Lexical utilities: stateless, pure transforms over query and search text.
// Nothing here touches the dataset store.

// synonymTable maps a canonical concept key to the phrases clinicians use
// interchangeably with it. Traditional-medicine terms sit alongside their
// biomedical equivalents so a query in either vocabulary finds both.
var synonymTable = map[string][]string{
	"fever":           {"jwara", "jvar", "pyrexia", "temperature"},
	"diarrhea":        {"atisara", "loose motions", "dysentery"},
	"anemia":          {"pandu", "raktalpata", "pallor"},
	"diabetes":        {"madhumeha", "sugar disease", "prameha"},
	"arthritis":       {"amavata", "sandhivata", "joint inflammation"},
	"tb":              {"rajayakshma", "tuberculosis", "kshaya roga"},
	"asthma":          {"shwasa", "breathing difficulty", "dyspnea"},
	"piles":           {"arsha", "hemorrhoids", "bawaseer"},
	"skin disease":    {"kushtha", "dermatitis", "twak roga"},
	"mental disorder": {"unmada", "psychosis", "mana vikara"},
}

// abbreviationTable maps common clinical abbreviations to their full phrase.
// Only whole-term matches apply.
var abbreviationTable = map[string]string{
	"ra":   "rheumatoid arthritis",
	"oa":   "osteoarthritis",
	"tb":   "tuberculosis",
	"dm":   "diabetes mellitus",
	"cvd":  "cardiovascular disease",
	"mi":   "myocardial infarction",
	"copd": "chronic obstructive pulmonary disease",
	"uti":  "urinary tract infection",
	"ari":  "acute respiratory infection",
	"pid":  "pelvic inflammatory disease",
}

// ExpandSynonyms returns the query variants for term: the term itself plus,
// for every concept it matches, the concept key and all of its synonyms.
// A term matches a concept when it equals the key, equals a synonym, or
// contains a synonym. Unmatched terms come back as a single-element slice.
// Results are deduplicated in first-occurrence order; concepts are visited
// in sorted key order so the expansion is deterministic across runs.
func ExpandSynonyms(term string) []string {
	lower := strings.ToLower(term)
	expanded := []string{lower}
	seen := map[string]bool{lower: true}

	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			expanded = append(expanded, s)
		}
	}

	keys := make([]string, 0, len(synonymTable))
	for key := range synonymTable {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		synonyms := synonymTable[key]
		matched := lower == key
		for _, syn := range synonyms {
			if lower == syn || strings.Contains(lower, syn) {
				matched = true
				break
			}
		}
		if matched {
			add(key)
			for _, syn := range synonyms {
				add(syn)
			}
		}
	}
	return expanded
}

// NormalizeAbbreviation replaces a whole-term clinical abbreviation with its
// full phrase. Substring occurrences are left alone.
func NormalizeAbbreviation(term string) string {
	if full, ok := abbreviationTable[strings.ToLower(term)]; ok {
		return full
	}
	return term
}

// FuzzyScore computes normalized Levenshtein similarity between two strings,
// case-insensitive. 1.0 means identical, 0.0 means nothing in common.
func FuzzyScore(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// PartialFuzzyScore computes the best-alignment similarity of needle against
// any needle-length window of haystack. Used where the query is a fragment
// of a longer display or definition.
func PartialFuzzyScore(needle, haystack string) float64 {
	needle = strings.ToLower(needle)
	haystack = strings.ToLower(haystack)
	if len(needle) == 0 || len(haystack) == 0 {
		return 0.0
	}
	if len(needle) >= len(haystack) {
		return FuzzyScore(needle, haystack)
	}

	best := 0.0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		window := haystack[i : i+len(needle)]
		if score := FuzzyScore(needle, window); score > best {
			best = score
			if best == 1.0 {
				break
			}
		}
	}
	return best
}

// levenshtein computes the edit distance between two strings using the full
// dynamic-programming matrix.
func levenshtein(s1, s2 string) int {
	len1, len2 := len(s1), len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			del := matrix[i-1][j] + 1
			ins := matrix[i][j-1] + 1
			sub := matrix[i-1][j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			matrix[i][j] = m
		}
	}
	return matrix[len1][len2]
}

var stopwords = map[string]bool{
	"the": true, "and": true, "or": true, "in": true, "of": true,
	"for": true, "with": true, "to": true, "a": true, "an": true,
}

// keywordSuffixes are stripped greedily; only the first matching suffix is
// removed from a token.
var keywordSuffixes = []string{"ing", "ed", "es", "ies", "ly", "s"}

// ExtractKeywords lowercases text, tokenizes it on alphabetic runs, drops
// stopwords and tokens shorter than three characters, and strips the first
// matching suffix from each surviving token. Order follows first occurrence
// in the input.
func ExtractKeywords(text string) []string {
	var keywords []string
	for _, token := range alphaTokens(strings.ToLower(text)) {
		if len(token) < 3 || stopwords[token] {
			continue
		}
		keywords = append(keywords, stemKeyword(token))
	}
	return keywords
}

// alphaTokens splits text into maximal runs of ASCII letters.
func alphaTokens(text string) []string {
	var tokens []string
	start := -1
	for i := 0; i < len(text); i++ {
		isAlpha := (text[i] >= 'a' && text[i] <= 'z') || (text[i] >= 'A' && text[i] <= 'Z')
		if isAlpha {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

func stemKeyword(token string) string {
	for _, suffix := range keywordSuffixes {
		if strings.HasSuffix(token, suffix) {
			return token[:len(token)-len(suffix)]
		}
	}
	return token
}
