package clinical

import (
	"math"
	"strings"
)

// Reference bands for the deviation functions. Each function returns 0
// inside its band and rises linearly to 1 at the saturation point.
const (
	hrLow, hrHigh         = 60.0, 100.0
	hrLowSpan, hrHighSpan = 60.0, 100.0

	sysHigh, sysHighSpan = 120.0, 80.0
	sysLow, sysLowSpan   = 90.0, 30.0
	diaHigh, diaHighSpan = 80.0, 40.0
	diaLow, diaLowSpan   = 60.0, 20.0
	bpSystolicWeight     = 0.6
	bpDiastolicWeight    = 0.4

	spo2Floor, spo2Span = 95.0, 20.0

	feverOnset, feverSpan = 37.5, 3.0

	rrCentre, rrSpan = 16.0, 16.0

	sugarLow, sugarHigh         = 70.0, 140.0
	sugarLowSpan, sugarHighSpan = 30.0, 260.0

	ageSpan = 100.0

	bmiLow, bmiHigh         = 18.5, 24.9
	bmiLowSpan, bmiHighSpan = 10.0, 20.0

	hgbMale, hgbOther = 13.5, 12.0

	hydrationFloor = 60.0
)

// HeartRateDeviation is 0 inside [60,100] bpm and reaches 1 at 0 or 200 bpm.
func HeartRateDeviation(hr float64) float64 {
	switch {
	case hr < hrLow:
		return clamp01((hrLow - hr) / hrLowSpan)
	case hr > hrHigh:
		return clamp01((hr - hrHigh) / hrHighSpan)
	default:
		return 0
	}
}

// BloodPressureDeviation blends a systolic (60%) and a diastolic (40%)
// sub-score. Each side has a high branch and a low branch; the low branch
// only measures distance below its lower breakpoint, so systolic values in
// (90,120] score 0.
func BloodPressureDeviation(sys, dia float64) float64 {
	var sd, dd float64
	if sys > sysHigh {
		sd = clamp01((sys - sysHigh) / sysHighSpan)
	} else {
		sd = clamp01((sysLow - sys) / sysLowSpan)
	}
	if dia > diaHigh {
		dd = clamp01((dia - diaHigh) / diaHighSpan)
	} else {
		dd = clamp01((diaLow - dia) / diaLowSpan)
	}
	return sd*bpSystolicWeight + dd*bpDiastolicWeight
}

// SpO2Deviation is 0 at 95% saturation or above and 1 at 75% or below.
func SpO2Deviation(s float64) float64 {
	return clamp01(math.Max(0, spo2Floor-s) / spo2Span)
}

// FeverIndex is 0 at or below 37.5°C and 1 at 40.5°C.
func FeverIndex(t float64) float64 {
	return clamp01(math.Max(0, t-feverOnset) / feverSpan)
}

// RespiratoryDeviation is the distance from 16 breaths/min over 16.
func RespiratoryDeviation(rr float64) float64 {
	return clamp01(math.Abs(rr-rrCentre) / rrSpan)
}

// SugarRisk is 0 in [70,140] mg/dL, 1 at 400 above and 1 at 40 below.
func SugarRisk(s float64) float64 {
	switch {
	case s > sugarHigh:
		return clamp01((s - sugarHigh) / sugarHighSpan)
	case s < sugarLow:
		return clamp01((sugarLow - s) / sugarLowSpan)
	default:
		return 0
	}
}

// AgeRisk is age/100, saturating at 100 years.
func AgeRisk(a float64) float64 {
	return clamp01(a / ageSpan)
}

// BMIRisk is 0 in [18.5,24.9], 1 at 8.5 below and 1 at 44.9 above.
func BMIRisk(b float64) float64 {
	switch {
	case b < bmiLow:
		return clamp01((bmiLow - b) / bmiLowSpan)
	case b > bmiHigh:
		return clamp01((b - bmiHigh) / bmiHighSpan)
	default:
		return 0
	}
}

// HemoglobinRisk measures the shortfall below a gender threshold (13.5 g/dL
// for "male" in any case, 12.0 otherwise). Excess hemoglobin carries no risk.
func HemoglobinRisk(h float64, gender string) float64 {
	thr := hgbOther
	if strings.EqualFold(gender, "male") {
		thr = hgbMale
	}
	return clamp01(math.Max(0, thr-h) / thr)
}

// HydrationDeficit is 0 at 60% hydration or above and 1 at 0%.
func HydrationDeficit(h float64) float64 {
	return clamp01(math.Max(0, hydrationFloor-h) / hydrationFloor)
}

// clamp01 restricts v to the range [0, 1]. NaN maps to 0.
func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
