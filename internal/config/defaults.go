package config

// DefaultRegionalMultipliers returns the seed multiplier table for French
// regions. Storage is seeded from this once; later changes go through the
// review queue, not config edits.
func DefaultRegionalMultipliers() map[string]float64 {
	return map[string]float64{
		"Île-de-France":              1.15,
		"Provence-Alpes-Côte d'Azur": 1.10,
		"Auvergne-Rhône-Alpes":       1.05,
		"Occitanie":                  1.00,
		"Nouvelle-Aquitaine":         0.95,
		"Hauts-de-France":            0.90,
		"Grand Est":                  0.95,
		"Bourgogne-Franche-Comté":    0.90,
		"Centre-Val de Loire":        0.95,
		"Normandie":                  0.90,
		"Bretagne":                   0.95,
		"Pays de la Loire":           0.95,
		"Corse":                      1.20,
	}
}

// DefaultCategories returns the per-category extraction and pricing tables.
// Transcript keywords decide whether a category is present in a job
// description; material keywords decide which retrieved materials belong to
// it. The two lists are deliberately different: a bathroom transcript implies
// tiling work, but "bathroom" is not a material.
func DefaultCategories() map[string]CategoryConfig {
	return map[string]CategoryConfig{
		"tiling": {
			Label:              "Tile Installation",
			TranscriptKeywords: []string{"tile", "carrelage", "bathroom", "shower", "wall"},
			MaterialKeywords:   []string{"tile", "carrelage", "adhesive", "grout"},
			LaborRate:          45.0,
			BaseDurationDays:   2,
			Confidence:         0.8,
		},
		"painting": {
			Label:              "Painting",
			TranscriptKeywords: []string{"paint", "peinture", "wall", "ceiling"},
			MaterialKeywords:   []string{"paint", "peinture", "primer", "brush"},
			LaborRate:          35.0,
			BaseDurationDays:   1,
			Confidence:         0.9,
		},
		"plumbing": {
			Label:              "Plumbing Work",
			TranscriptKeywords: []string{"pipe", "tuyau", "water", "bathroom", "kitchen"},
			MaterialKeywords:   []string{"pipe", "tuyau", "valve", "fitting"},
			LaborRate:          55.0,
			BaseDurationDays:   1,
			Confidence:         0.7,
		},
		"electrical": {
			Label:              "Electrical Work",
			TranscriptKeywords: []string{"wire", "fil", "electric", "switch", "outlet"},
			MaterialKeywords:   []string{"wire", "fil", "cable", "switch"},
			LaborRate:          50.0,
			BaseDurationDays:   1,
			Confidence:         0.6,
		},
		"carpentry": {
			Label:              "Carpentry Work",
			TranscriptKeywords: []string{"wood", "bois", "door", "window", "cabinet"},
			MaterialKeywords:   []string{"wood", "bois", "board", "screw"},
			LaborRate:          40.0,
			BaseDurationDays:   2,
			Confidence:         0.7,
		},
		"general": {
			Label:            "General Renovation",
			LaborRate:        40.0,
			BaseDurationDays: 1,
			Confidence:       0.5,
		},
	}
}

// DefaultBaseQuantities maps a material-name substring to the default
// quantity assumed per task. Coarse by design: quantities are not inferred
// from the transcript's actual scope.
func DefaultBaseQuantities() map[string]float64 {
	return map[string]float64{
		"tile":     10.0, // m2
		"adhesive": 5.0,  // kg
		"paint":    5.0,  // L
		"pipe":     10.0, // m
		"wire":     20.0, // m
		"wood":     5.0,  // m2
	}
}

// DefaultQuantity is assumed when no base-quantity keyword matches.
const DefaultQuantity = 1.0

// DefaultVendorPriors is the static reliability table used to seed vendor
// trust before any feedback history exists.
func DefaultVendorPriors() map[string]float64 {
	return map[string]float64{
		"leroy merlin": 0.9,
		"castorama":    0.85,
		"brico depot":  0.8,
		"weldom":       0.75,
	}
}

// UnknownVendorScore is the trust prior for vendors with no record.
const UnknownVendorScore = 0.5
