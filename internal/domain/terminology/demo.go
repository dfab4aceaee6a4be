package terminology

// Demo datasets used when no CSV has been imported and the external
// terminology authority is not configured. Codes and displays mirror the
// curated starter set shipped with the service.

func demoSourceRecords() []TermRecord {
	return []TermRecord{
		{
			ID:                "NAMASTE_AY001",
			Code:              "AY001",
			Display:           "Jwara",
			Definition:        "Fever with elevated body temperature and systemic disturbance",
			Synonyms:          []string{"jwara", "fever", "pyrexia"},
			System:            SystemNAMASTE,
			Dosha:             "pitta",
			Category:          "ayurveda",
			MappedTM2Code:     "TM26.0",
			MappedBIOCode:     "1A00",
			MappingConfidence: 0.9,
			MappingSource:     MappingSourceManual,
		},
		{
			ID:                "NAMASTE_AY002",
			Code:              "AY002",
			Display:           "Atisara",
			Definition:        "Frequent loose watery stools with dehydration risk in children",
			Synonyms:          []string{"atisara", "diarrhea", "loose motions"},
			System:            SystemNAMASTE,
			Dosha:             "vata",
			Category:          "ayurveda",
			MappedTM2Code:     "TM26.1",
			MappingConfidence: 0.85,
			MappingSource:     MappingSourceManual,
		},
		{
			ID:            "NAMASTE_AY003",
			Code:          "AY003",
			Display:       "Pandu",
			Definition:    "Pallor of skin and mucosa from diminished blood, anemia",
			Synonyms:      []string{"pandu", "anemia", "pallor"},
			System:        SystemNAMASTE,
			Dosha:         "pitta",
			Category:      "ayurveda",
			MappingSource: MappingSourceUnmapped,
		},
		{
			ID:                "NAMASTE_AY004",
			Code:              "AY004",
			Display:           "Madhumeha",
			Definition:        "Excessive sweet urine disorder, diabetes mellitus",
			Synonyms:          []string{"madhumeha", "prameha", "diabetes"},
			System:            SystemNAMASTE,
			Dosha:             "kapha",
			Category:          "ayurveda",
			MappedBIOCode:     "5A10",
			MappingConfidence: 0.8,
			MappingSource:     MappingSourceManual,
		},
		{
			ID:            "NAMASTE_AY005",
			Code:          "AY005",
			Display:       "Amavata",
			Definition:    "Joint pain and swelling from ama accumulation, rheumatoid arthritis",
			Synonyms:      []string{"amavata", "arthritis", "joint inflammation"},
			System:        SystemNAMASTE,
			Dosha:         "vata",
			Category:      "ayurveda",
			MappingSource: MappingSourceUnmapped,
		},
		{
			ID:            "NAMASTE_SI001",
			Code:          "SI001",
			Display:       "Suram",
			Definition:    "Fever presentation in Siddha practice",
			Synonyms:      []string{"suram", "fever"},
			System:        SystemNAMASTE,
			Category:      "siddha",
			MappingSource: MappingSourceUnmapped,
		},
		{
			ID:            "NAMASTE_UN001",
			Code:          "UN001",
			Display:       "Humma",
			Definition:    "Fever condition described in Unani medicine",
			Synonyms:      []string{"humma", "fever"},
			System:        SystemNAMASTE,
			Category:      "unani",
			MappingSource: MappingSourceUnmapped,
		},
	}
}

func demoTM2Records() []TermRecord {
	return []TermRecord{
		{
			ID:            "TM2_001",
			Code:          "TM26.0",
			Display:       "Traditional fever disorder",
			Definition:    "Fever conditions in traditional medicine",
			System:        SystemTM2,
			MappedBIOCode: "1A00",
			MappingSource: MappingSourceManual,
		},
		{
			ID:            "TM2_002",
			Code:          "TM26.1",
			Display:       "Traditional diarrheal disorder",
			Definition:    "Diarrhea conditions in traditional medicine",
			System:        SystemTM2,
			MappingSource: MappingSourceUnmapped,
		},
	}
}

func demoBIORecords() []TermRecord {
	return []TermRecord{
		{
			ID:            "BIO_001",
			Code:          "1A00",
			Display:       "Fever of unknown origin",
			Definition:    "Fever without known cause",
			System:        SystemBIO,
			MappingSource: MappingSourceUnmapped,
		},
		{
			ID:            "BIO_002",
			Code:          "5A10",
			Display:       "Type 2 diabetes mellitus",
			Definition:    "Diabetes mellitus type 2, chronic hyperglycemia",
			System:        SystemBIO,
			MappingSource: MappingSourceUnmapped,
		},
		{
			ID:            "BIO_003",
			Code:          "CA23",
			Display:       "Asthma",
			Definition:    "Chronic inflammatory airway disease with wheezing and breathing difficulty",
			System:        SystemBIO,
			MappingSource: MappingSourceUnmapped,
		},
		{
			ID:            "BIO_004",
			Code:          "FA20",
			Display:       "Rheumatoid arthritis",
			Definition:    "Chronic autoimmune joint inflammation",
			System:        SystemBIO,
			MappingSource: MappingSourceUnmapped,
		},
	}
}

// SeedDemoData loads the bundled starter datasets into an empty store,
// minting the initial dataset version.
func SeedDemoData(store *Store) (DatasetVersion, error) {
	records := demoSourceRecords()
	records = append(records, demoTM2Records()...)
	records = append(records, demoBIORecords()...)
	return store.ImportBatch(records, "Initial version with demo data")
}
