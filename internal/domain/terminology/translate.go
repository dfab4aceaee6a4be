package terminology

import "fmt"

const (
	// defaultMappingConfidence backs source records ingested without an
	// explicit curated confidence.
	defaultMappingConfidence = 0.8

	// hopDecay is the confidence penalty applied per derived mapping hop.
	hopDecay = 0.9

	// tm2ToBIOConfidence is the fixed confidence of the curated TM2 to
	// biomedicine equivalence table.
	tm2ToBIOConfidence = 0.85
)

// Translate resolves a code from one system into its equivalent in another,
// propagating mapping confidence along the path. The code is resolved by
// code first, then by id. Unsupported directions and unmapped codes return
// ErrNotFound.
func (s *Store) Translate(code string, source, target System) (TranslateResult, error) {
	if source == target {
		return TranslateResult{}, fmt.Errorf("source and target system are both %q: %w", source, ErrNotFound)
	}

	switch {
	case source == SystemNAMASTE && target == SystemTM2:
		return s.translateSource(code, target)
	case source == SystemNAMASTE && target == SystemBIO:
		return s.translateSource(code, target)
	case source == SystemTM2 && target == SystemBIO:
		return s.translateTM2ToBIO(code)
	case source == SystemTM2 && target == SystemNAMASTE:
		return s.translateTM2ToSource(code)
	}
	return TranslateResult{}, fmt.Errorf("translation from %q to %q is not supported: %w",
		source, target, ErrNotFound)
}

// translateSource follows a source record's stored cross-mapping into TM2 or
// biomedicine. The biomedicine hop is derived, so its confidence decays.
func (s *Store) translateSource(code string, target System) (TranslateResult, error) {
	rec, err := s.GetCodeDetails(SystemNAMASTE, code)
	if err != nil {
		return TranslateResult{}, err
	}

	mappedCode := rec.MappedTM2Code
	if target == SystemBIO {
		mappedCode = rec.MappedBIOCode
	}
	if mappedCode == "" {
		return TranslateResult{}, fmt.Errorf("code %q has no %q mapping: %w", code, target, ErrNotFound)
	}

	confidence := rec.MappingConfidence
	if confidence == 0 {
		confidence = defaultMappingConfidence
	}
	if target == SystemBIO {
		confidence *= hopDecay
	}

	targetRec, err := s.GetCodeDetails(target, mappedCode)
	if err != nil {
		return TranslateResult{}, err
	}
	return translateResult(rec, targetRec, confidence), nil
}

// translateTM2ToBIO follows a TM2 record's biomedicine equivalence.
func (s *Store) translateTM2ToBIO(code string) (TranslateResult, error) {
	rec, err := s.GetCodeDetails(SystemTM2, code)
	if err != nil {
		return TranslateResult{}, err
	}
	if rec.MappedBIOCode == "" {
		return TranslateResult{}, fmt.Errorf("code %q has no %q mapping: %w", code, SystemBIO, ErrNotFound)
	}
	targetRec, err := s.GetCodeDetails(SystemBIO, rec.MappedBIOCode)
	if err != nil {
		return TranslateResult{}, err
	}
	return translateResult(rec, targetRec, tm2ToBIOConfidence), nil
}

// translateTM2ToSource reverses the source-to-TM2 mapping by scanning the
// source collection in insertion order; the first record pointing at the
// TM2 code wins. The reverse hop is derived, so confidence decays.
func (s *Store) translateTM2ToSource(code string) (TranslateResult, error) {
	rec, err := s.GetCodeDetails(SystemTM2, code)
	if err != nil {
		return TranslateResult{}, err
	}

	snap := s.snap.Load()
	for i := range snap.namaste {
		src := &snap.namaste[i]
		if src.MappedTM2Code != rec.Code {
			continue
		}
		confidence := src.MappingConfidence
		if confidence == 0 {
			confidence = defaultMappingConfidence
		}
		return translateResult(rec, *src, confidence*hopDecay), nil
	}
	return TranslateResult{}, fmt.Errorf("no source term maps to %q: %w", code, ErrNotFound)
}

// ConceptMapping is one source-to-target code equivalence, used to render
// the full mapping table between two systems.
type ConceptMapping struct {
	SourceCode    string  `json:"source_code"`
	SourceDisplay string  `json:"source_display"`
	TargetCode    string  `json:"target_code"`
	Confidence    float64 `json:"confidence"`
}

// Mappings lists every stored equivalence from source into target, in
// insertion order. Only the curated directions yield mappings; derived and
// reverse directions come back empty.
func (s *Store) Mappings(source, target System) []ConceptMapping {
	snap := s.snap.Load()
	var out []ConceptMapping

	appendMapping := func(rec *TermRecord, targetCode string, confidence float64) {
		if targetCode == "" {
			return
		}
		out = append(out, ConceptMapping{
			SourceCode:    rec.Code,
			SourceDisplay: rec.Display,
			TargetCode:    targetCode,
			Confidence:    confidence,
		})
	}

	switch {
	case source == SystemNAMASTE && target == SystemTM2:
		for i := range snap.namaste {
			rec := &snap.namaste[i]
			conf := rec.MappingConfidence
			if conf == 0 {
				conf = defaultMappingConfidence
			}
			appendMapping(rec, rec.MappedTM2Code, conf)
		}
	case source == SystemNAMASTE && target == SystemBIO:
		for i := range snap.namaste {
			rec := &snap.namaste[i]
			conf := rec.MappingConfidence
			if conf == 0 {
				conf = defaultMappingConfidence
			}
			appendMapping(rec, rec.MappedBIOCode, conf*hopDecay)
		}
	case source == SystemTM2 && target == SystemBIO:
		for i := range snap.tm2 {
			appendMapping(&snap.tm2[i], snap.tm2[i].MappedBIOCode, tm2ToBIOConfidence)
		}
	}
	return out
}

func translateResult(source, target TermRecord, confidence float64) TranslateResult {
	return TranslateResult{
		SourceCode:    source.Code,
		SourceDisplay: source.Display,
		TargetCode:    target.Code,
		TargetDisplay: target.Display,
		Confidence:    confidence,
		SourceVersion: source.Version,
		TargetVersion: target.Version,
	}
}
