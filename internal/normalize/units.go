// Package normalize converts extraction candidates into unit-consistent,
// confidence-scored, validated fields.
package normalize

import (
	"math"
	"strings"
)

// Conversion is the outcome of one unit conversion attempt.
type Conversion struct {
	Value      float64
	Unit       string
	Confidence float64
	Success    bool
	Converted  bool
}

// unitCategories maps each category to unit factors relative to the
// category base unit.
var unitCategories = map[string]map[string]float64{
	"voltage": {
		"uV": 1e-6, "mV": 1e-3, "V": 1, "kV": 1e3,
	},
	"current": {
		"nA": 1e-9, "uA": 1e-6, "mA": 1e-3, "A": 1,
	},
	"frequency": {
		"Hz": 1, "kHz": 1e3, "MHz": 1e6, "GHz": 1e9,
	},
	"memory": {
		"B": 1, "KB": 1024, "MB": 1024 * 1024, "GB": 1024 * 1024 * 1024, "TB": 1024 * 1024 * 1024 * 1024,
	},
	"power": {
		"uW": 1e-6, "mW": 1e-3, "W": 1, "kW": 1e3,
	},
	"time": {
		"us": 1e-6, "ms": 1e-3, "s": 1, "min": 60, "hr": 3600, "days": 86400,
	},
	"rate": {
		"req/s": 1, "req/min": 1.0 / 60, "req/hr": 1.0 / 3600,
	},
	"data_rate": {
		"bps": 1, "Kbps": 1e3, "Mbps": 1e6, "Gbps": 1e9, "Tbps": 1e12,
	},
	"currency": {
		// Static planning rates; exports carry the original unit note.
		"USD": 1, "EUR": 1.08, "GBP": 1.27,
	},
}

// unitVocabulary indexes every table unit by its lowercased spelling so
// captured tokens can be folded onto the canonical casing. The vocabulary
// is collision-free across categories.
var unitVocabulary = func() map[string]string {
	vocab := make(map[string]string)
	for _, factors := range unitCategories {
		for unit := range factors {
			vocab[strings.ToLower(unit)] = unit
		}
	}
	return vocab
}()

// CanonicalUnit maps a unit spelling onto the conversion-table vocabulary,
// ignoring case ("mv" to "mV", "mhz" to "MHz"). Unknown spellings come
// back untouched.
func CanonicalUnit(token string) string {
	if unit, ok := unitVocabulary[strings.ToLower(strings.TrimSpace(token))]; ok {
		return unit
	}
	return token
}

type Converter struct {
	fieldCategory map[string]string
}

func NewConverter() *Converter {
	return &Converter{fieldCategory: make(map[string]string)}
}

// RegisterField pins a field to a unit category, taking precedence over
// pair-based category resolution.
func (c *Converter) RegisterField(field, category string) {
	if _, ok := unitCategories[category]; ok {
		c.fieldCategory[field] = category
	}
}

// RegisterFieldUnit pins a field to the category containing its target unit.
func (c *Converter) RegisterFieldUnit(field, targetUnit string) {
	if cat := categoryOfUnit(targetUnit); cat != "" {
		c.fieldCategory[field] = cat
	}
}

// Convert converts value from one unit to another. Identical units return
// the value untouched with confidence 1.0. Confidence shrinks with the
// magnitude of the conversion factor.
func (c *Converter) Convert(field string, value float64, fromUnit, toUnit string) Conversion {
	if fromUnit == toUnit {
		return Conversion{Value: value, Unit: toUnit, Confidence: 1.0, Success: true}
	}
	if fromUnit == "" || toUnit == "" {
		return Conversion{Success: false}
	}

	category := c.resolveCategory(field, fromUnit, toUnit)
	if category == "" {
		return Conversion{Success: false}
	}
	factors := unitCategories[category]
	fromFactor, okFrom := factors[fromUnit]
	toFactor, okTo := factors[toUnit]
	if !okFrom || !okTo {
		return Conversion{Success: false}
	}

	factor := fromFactor / toFactor
	confidence := 0.95
	magnitude := math.Abs(math.Log10(factor))
	if magnitude > 3 {
		confidence = 0.85
	} else if magnitude > 1 {
		confidence = 0.90
	}

	return Conversion{
		Value:      value * factor,
		Unit:       toUnit,
		Confidence: confidence,
		Success:    true,
		Converted:  true,
	}
}

func (c *Converter) resolveCategory(field, fromUnit, toUnit string) string {
	if cat, ok := c.fieldCategory[field]; ok {
		factors := unitCategories[cat]
		if _, okFrom := factors[fromUnit]; okFrom {
			if _, okTo := factors[toUnit]; okTo {
				return cat
			}
		}
		return ""
	}
	for cat, factors := range unitCategories {
		_, okFrom := factors[fromUnit]
		_, okTo := factors[toUnit]
		if okFrom && okTo {
			return cat
		}
	}
	return ""
}

func categoryOfUnit(unit string) string {
	for cat, factors := range unitCategories {
		if _, ok := factors[unit]; ok {
			return cat
		}
	}
	return ""
}
