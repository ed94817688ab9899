package parser

import (
	"regexp"
	"strconv"
)

// VitalsParse is one measurement recognized in free text.
type VitalsParse struct {
	Kind  string
	Value float64
	Unit  string
}

var (
	weightRe    = regexp.MustCompile(`(?i)\b(\d{2,3}(?:\.\d+)?)\s*(kg|kilograms?|lbs?|pounds?)\b`)
	heartRateRe = regexp.MustCompile(`(?i)\b(\d{2,3})\s*bpm\b`)
	bloodPresRe = regexp.MustCompile(`(?i)\b(\d{2,3})\s*/\s*(\d{2,3})\b`)
	bpContextRe = regexp.MustCompile(`(?i)\b(blood pressure|bp)\b`)
)

// ParseVitals recognizes weight, heart rate, and blood pressure readings.
// Blood pressure requires an explicit "blood pressure"/"bp" mention so meal
// fractions ("1/2 bagel") are never misread as a measurement. Systolic and
// diastolic are reported as separate entries sharing the mmHg unit.
func ParseVitals(text string) []VitalsParse {
	var entries []VitalsParse

	if m := weightRe.FindStringSubmatch(text); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			unit := "kg"
			if m[2][0] == 'l' || m[2][0] == 'L' || m[2][0] == 'p' || m[2][0] == 'P' {
				unit = "lbs"
			}
			entries = append(entries, VitalsParse{Kind: "weight", Value: value, Unit: unit})
		}
	}

	if m := heartRateRe.FindStringSubmatch(text); m != nil {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil {
			entries = append(entries, VitalsParse{Kind: "heart_rate", Value: value, Unit: "bpm"})
		}
	}

	if bpContextRe.MatchString(text) {
		if m := bloodPresRe.FindStringSubmatch(text); m != nil {
			systolic, errS := strconv.ParseFloat(m[1], 64)
			diastolic, errD := strconv.ParseFloat(m[2], 64)
			if errS == nil && errD == nil && systolic > diastolic {
				entries = append(entries,
					VitalsParse{Kind: "blood_pressure_systolic", Value: systolic, Unit: "mmHg"},
					VitalsParse{Kind: "blood_pressure_diastolic", Value: diastolic, Unit: "mmHg"},
				)
			}
		}
	}

	return entries
}
