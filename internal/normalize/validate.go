package normalize

import (
	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

type ValidationStatus string

const (
	ValidationValid       ValidationStatus = "valid"
	ValidationNeedsReview ValidationStatus = "needs_review"
	ValidationInvalid     ValidationStatus = "invalid"
)

// ValidateFieldValue checks a normalized value against the profile's
// validation thresholds. Out-of-range values are flagged, never dropped:
// below-min reads as a wrong extraction, above-max as a suspicious one.
func ValidateFieldValue(p *profile.Profile, fieldID string, value domain.Value, unit string) ValidationStatus {
	threshold, ok := p.ValidationThresholds[fieldID]
	if !ok {
		return ValidationValid
	}

	if len(threshold.ExpectedUnits) > 0 && unit != "" {
		matched := false
		for _, expected := range threshold.ExpectedUnits {
			if expected == unit {
				matched = true
				break
			}
		}
		if !matched {
			return ValidationNeedsReview
		}
	}

	number, numeric := value.AsNumber()
	if !numeric {
		return ValidationValid
	}
	if threshold.Min != nil && number < *threshold.Min {
		return ValidationInvalid
	}
	if threshold.Max != nil && number > *threshold.Max {
		return ValidationNeedsReview
	}
	return ValidationValid
}
