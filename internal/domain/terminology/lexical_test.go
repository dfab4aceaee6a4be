package terminology

import (
	"testing"
)

func TestExpandSynonyms_FeverExpandsTraditionalTerms(t *testing.T) {
	expanded := ExpandSynonyms("fever")

	want := []string{"fever", "jwara", "pyrexia"}
	for _, term := range want {
		if !contains(expanded, term) {
			t.Errorf("expected expansion of 'fever' to include %q, got %v", term, expanded)
		}
	}
}

func TestExpandSynonyms_SynonymMatchesConceptKey(t *testing.T) {
	expanded := ExpandSynonyms("jwara")
	if !contains(expanded, "fever") {
		t.Errorf("expected expansion of 'jwara' to include 'fever', got %v", expanded)
	}
}

func TestExpandSynonyms_UnknownTermReturnsItself(t *testing.T) {
	expanded := ExpandSynonyms("xyzzy")
	if len(expanded) != 1 || expanded[0] != "xyzzy" {
		t.Errorf("expected single-element expansion, got %v", expanded)
	}
}

func TestExpandSynonyms_MultiConceptOrderIsStable(t *testing.T) {
	// "amavata jwara" matches both the arthritis and fever concepts; the
	// buckets come back in sorted key order, every time.
	want := []string{
		"amavata jwara",
		"arthritis", "amavata", "sandhivata", "joint inflammation",
		"fever", "jwara", "jvar", "pyrexia", "temperature",
	}
	for run := 0; run < 20; run++ {
		got := ExpandSynonyms("amavata jwara")
		if len(got) != len(want) {
			t.Fatalf("run %d: expansion = %v, want %v", run, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: variant %d = %q, want %q (full: %v)", run, i, got[i], want[i], got)
			}
		}
	}
}

func TestExpandSynonyms_NoDuplicates(t *testing.T) {
	expanded := ExpandSynonyms("tuberculosis")
	seen := make(map[string]bool)
	for _, term := range expanded {
		if seen[term] {
			t.Errorf("duplicate term %q in expansion %v", term, expanded)
		}
		seen[term] = true
	}
}

func TestNormalizeAbbreviation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ra", "rheumatoid arthritis"},
		{"RA", "rheumatoid arthritis"},
		{"dm", "diabetes mellitus"},
		{"copd", "chronic obstructive pulmonary disease"},
		{"rational", "rational"}, // substring only, no whole-term match
		{"fever", "fever"},
	}
	for _, tt := range tests {
		if got := NormalizeAbbreviation(tt.in); got != tt.want {
			t.Errorf("NormalizeAbbreviation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFuzzyScore(t *testing.T) {
	if got := FuzzyScore("fever", "fever"); got != 1.0 {
		t.Errorf("identical strings should score 1.0, got %v", got)
	}
	if got := FuzzyScore("Fever", "FEVER"); got != 1.0 {
		t.Errorf("comparison should be case-insensitive, got %v", got)
	}
	if got := FuzzyScore("", "fever"); got != 0.0 {
		t.Errorf("empty string should score 0.0, got %v", got)
	}
	// one substitution in a five-char word
	if got := FuzzyScore("fever", "faver"); got != 0.8 {
		t.Errorf("expected 0.8 for one edit in five chars, got %v", got)
	}
}

func TestPartialFuzzyScore_FindsFragmentInLongerText(t *testing.T) {
	got := PartialFuzzyScore("fever", "traditional fever disorder")
	if got != 1.0 {
		t.Errorf("exact window should score 1.0, got %v", got)
	}

	typo := PartialFuzzyScore("fevar", "traditional fever disorder")
	if typo <= 0.5 || typo >= 1.0 {
		t.Errorf("near-miss window should score high but below 1.0, got %v", typo)
	}
}

func TestPartialFuzzyScore_NeedleLongerThanHaystack(t *testing.T) {
	got := PartialFuzzyScore("traditional fever", "fever")
	if got <= 0.0 || got >= 1.0 {
		t.Errorf("expected whole-string comparison, got %v", got)
	}
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("The fevers and chills of malaria")
	want := []string{"fever", "chill", "malaria"}
	if len(got) != len(want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractKeywords_DropsShortAndStopwords(t *testing.T) {
	got := ExtractKeywords("an of to is it")
	if len(got) != 0 {
		t.Errorf("expected no keywords, got %v", got)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
