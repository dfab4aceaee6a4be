package fhir

import (
	"fmt"
	"time"
)

// Canonical URLs for the served code systems.
const (
	NAMASTESystemURL = "http://namaste-ayush.gov.in/codesystem"
	TM2SystemURL     = "http://who.int/icd/tm2"
	BIOSystemURL     = "http://who.int/icd"
)

// Concept is one CodeSystem entry.
type Concept struct {
	Code        string        `json:"code"`
	Display     string        `json:"display"`
	Definition  string        `json:"definition,omitempty"`
	Designation []Designation `json:"designation,omitempty"`
}

// Designation carries an alternate term for a concept, such as a synonym.
type Designation struct {
	Value string         `json:"value"`
	Use   map[string]any `json:"use,omitempty"`
}

// SynonymDesignation builds a synonym designation.
func SynonymDesignation(value string) Designation {
	return Designation{Value: value, Use: map[string]any{"code": "synonym"}}
}

// CodeSystem renders a FHIR CodeSystem resource for one served system.
func CodeSystem(systemID, name, url, version string, concepts []Concept) map[string]any {
	resourceURL := url
	if version != "" {
		resourceURL = fmt.Sprintf("%s/%s", url, version)
	} else {
		version = "current"
	}
	return map[string]any{
		"resourceType": "CodeSystem",
		"id":           "codesystem-" + systemID,
		"url":          resourceURL,
		"version":      version,
		"name":         name,
		"status":       "active",
		"content":      "complete",
		"count":        len(concepts),
		"concept":      concepts,
		"meta": map[string]any{
			"lastUpdated": time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// MapElement is one source concept mapping inside a ConceptMap group.
type MapElement struct {
	Code   string      `json:"code"`
	Target []MapTarget `json:"target"`
}

// MapTarget is one target equivalence for a mapped source concept.
type MapTarget struct {
	Code        string `json:"code"`
	Equivalence string `json:"equivalence"`
	Comment     string `json:"comment,omitempty"`
}

// EquivalentTarget builds an "equivalent" mapping target annotated with its
// confidence.
func EquivalentTarget(code string, confidence float64) MapTarget {
	return MapTarget{
		Code:        code,
		Equivalence: "equivalent",
		Comment:     fmt.Sprintf("Mapping confidence: %g", confidence),
	}
}

// ConceptMap renders a FHIR ConceptMap resource between two served systems.
func ConceptMap(sourceID, targetID, sourceURL, targetURL string, elements []MapElement) map[string]any {
	return map[string]any{
		"resourceType": "ConceptMap",
		"id":           fmt.Sprintf("conceptmap-%s-to-%s", sourceID, targetID),
		"url":          fmt.Sprintf("http://namaste-icd11-service/conceptmap/%s-to-%s", sourceID, targetID),
		"version":      "1.0.0",
		"name":         fmt.Sprintf("Map from %s to %s", sourceID, targetID),
		"status":       "active",
		"sourceUri":    sourceURL,
		"targetUri":    targetURL,
		"group": []map[string]any{{
			"source":  sourceID,
			"target":  targetID,
			"element": elements,
		}},
		"meta": map[string]any{
			"lastUpdated": time.Now().UTC().Format(time.RFC3339),
		},
	}
}
