// Package ingest parses curated source-terminology exports into term
// records ready for import.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rr015/namaste-icd11-service/internal/domain/terminology"
)

// ParseSourceCSV reads a source nomenclature CSV export. The header row is
// required; recognized columns are code, display_name, definition, dosha,
// category, synonyms (semicolon separated), icd11_tm2_code, icd11_bio_code,
// and mapping_confidence. Record ids are derived from the code.
func ParseSourceCSV(r io.Reader) ([]terminology.TermRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["code"]; !ok {
		return nil, fmt.Errorf("csv is missing required column %q", "code")
	}
	if _, ok := col["display_name"]; !ok {
		return nil, fmt.Errorf("csv is missing required column %q", "display_name")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []terminology.TermRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		code := field(row, "code")
		if code == "" {
			return nil, fmt.Errorf("csv line %d: code is required", line)
		}

		confidence := 0.8
		if raw := field(row, "mapping_confidence"); raw != "" {
			confidence, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: bad mapping_confidence %q", line, raw)
			}
		}

		var synonyms []string
		if raw := field(row, "synonyms"); raw != "" {
			for _, syn := range strings.Split(raw, ";") {
				if syn = strings.TrimSpace(syn); syn != "" {
					synonyms = append(synonyms, syn)
				}
			}
		}

		tm2Code := field(row, "icd11_tm2_code")
		mappingSource := terminology.MappingSourceUnmapped
		if tm2Code != "" {
			mappingSource = terminology.MappingSourceManual
		}

		records = append(records, terminology.TermRecord{
			ID:                "NAMASTE_" + code,
			Code:              code,
			Display:           field(row, "display_name"),
			Definition:        field(row, "definition"),
			Synonyms:          synonyms,
			System:            terminology.SystemNAMASTE,
			Dosha:             field(row, "dosha"),
			Category:          field(row, "category"),
			MappedTM2Code:     tm2Code,
			MappedBIOCode:     field(row, "icd11_bio_code"),
			MappingConfidence: confidence,
			MappingSource:     mappingSource,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv contains no records")
	}
	return records, nil
}
