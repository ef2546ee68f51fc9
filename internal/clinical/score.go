package clinical

import (
	"math"

	"github.com/carepulse/carepulse/pkg/types"
)

// Weight constants for the risk formula. They must sum to 1.0.
const (
	weightHeartRate   = 0.09
	weightBP          = 0.14
	weightSpO2        = 0.15
	weightFever       = 0.10
	weightRespiratory = 0.09
	weightSugar       = 0.10
	weightAge         = 0.08
	weightBMI         = 0.07
	weightHemoglobin  = 0.10
	weightHydration   = 0.08
)

// Flag adjustments, applied in this order.
const (
	chronicMultiplier = 1.20
	emergencyBonus    = 10.0
	icuFloor          = 75.0
)

// Thresholds that map a risk score to a severity tier. Both are inclusive
// on the higher tier.
const (
	ThresholdCritical = 70.0
	ThresholdModerate = 40.0
)

// Risk is the result of scoring one patient.
type Risk struct {
	// Base is the weighted deviation sum ×100 before flag adjustments.
	Base float64

	// Score is the final 0–100 risk score, rounded to 2 decimals.
	Score float64

	Components types.Deviations
}

// Deviations evaluates all ten deviation functions for p.
func Deviations(p types.PatientRecord) types.Deviations {
	return types.Deviations{
		HeartRate:       HeartRateDeviation(p.HeartRate),
		BloodPressure:   BloodPressureDeviation(p.SystolicBP, p.DiastolicBP),
		SpO2:            SpO2Deviation(p.SpO2),
		Fever:           FeverIndex(p.BodyTemperature),
		RespiratoryRate: RespiratoryDeviation(p.RespiratoryRate),
		BloodSugar:      SugarRisk(p.BloodSugar),
		Age:             AgeRisk(p.Age),
		BMI:             BMIRisk(p.BMI),
		Hemoglobin:      HemoglobinRisk(p.Hemoglobin, p.Gender),
		Hydration:       HydrationDeficit(p.Hydration),
	}
}

// ComputeRisk scores a normalised patient.
//
//	score = 100 × Σ weight_i × deviation_i
//	chronic   → score × 1.20
//	emergency → score + 10
//	icu       → max(score, 75)
//
// The adjustments run in that order on the unclamped value; the result is
// then clamped to [0,100] and rounded to 2 decimals.
func ComputeRisk(p types.PatientRecord) Risk {
	d := Deviations(p)

	base := (d.HeartRate*weightHeartRate +
		d.BloodPressure*weightBP +
		d.SpO2*weightSpO2 +
		d.Fever*weightFever +
		d.RespiratoryRate*weightRespiratory +
		d.BloodSugar*weightSugar +
		d.Age*weightAge +
		d.BMI*weightBMI +
		d.Hemoglobin*weightHemoglobin +
		d.Hydration*weightHydration) * 100

	score := base
	if p.ChronicDisease {
		score *= chronicMultiplier
	}
	if p.Emergency {
		score += emergencyBonus
	}
	if p.ICURequired {
		score = math.Max(score, icuFloor)
	}

	return Risk{
		Base:       Round2(base),
		Score:      Round2(clampScore(score)),
		Components: d,
	}
}

// Classify maps a risk score to a severity tier.
func Classify(score float64) string {
	switch {
	case score >= ThresholdCritical:
		return types.SeverityCritical
	case score >= ThresholdModerate:
		return types.SeverityModerate
	default:
		return types.SeverityStable
	}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
