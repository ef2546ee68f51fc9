package clinical

import (
	"testing"

	"github.com/carepulse/carepulse/pkg/types"
)

// normalPatient returns a record with every vital inside its reference band,
// age 0 and no flags, so every deviation is 0.
func normalPatient() types.PatientRecord {
	return types.PatientRecord{
		PatientID:       "P-normal",
		Age:             0,
		Gender:          "male",
		HeartRate:       80,
		SystolicBP:      120,
		DiastolicBP:     80,
		SpO2:            98,
		BodyTemperature: 37,
		RespiratoryRate: 16,
		BloodSugar:      120,
		BMI:             22,
		Hemoglobin:      14,
		Hydration:       98,
	}
}

// fiftyPatient has deviations that sum to a base score of exactly 50:
// spo2(15) + bp(14) + fever(10) + sugar(10) + age 12.5 → 0.125×8 = 1.
func fiftyPatient() types.PatientRecord {
	p := normalPatient()
	p.SpO2 = 75
	p.SystolicBP = 200
	p.DiastolicBP = 120
	p.BodyTemperature = 40.5
	p.BloodSugar = 400
	p.Age = 12.5
	return p
}

func TestComputeRisk_NormalIsZero(t *testing.T) {
	r := ComputeRisk(normalPatient())
	if r.Score != 0 {
		t.Errorf("Score = %.4f, want 0", r.Score)
	}
	for k, v := range r.Components.Map() {
		if v != 0 {
			t.Errorf("component %s = %.4f, want 0", k, v)
		}
	}
}

func TestComputeRisk_Adjustments(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *types.PatientRecord)
		base      func() types.PatientRecord
		wantScore float64
		wantSev   string
	}{
		{
			name:      "base fifty",
			base:      fiftyPatient,
			mutate:    func(p *types.PatientRecord) {},
			wantScore: 50,
			wantSev:   types.SeverityModerate,
		},
		{
			name:      "chronic multiplies before clamp",
			base:      fiftyPatient,
			mutate:    func(p *types.PatientRecord) { p.ChronicDisease = true },
			wantScore: 60,
			wantSev:   types.SeverityModerate,
		},
		{
			name:      "emergency adds ten",
			base:      fiftyPatient,
			mutate:    func(p *types.PatientRecord) { p.Emergency = true },
			wantScore: 60,
			wantSev:   types.SeverityModerate,
		},
		{
			// 50 × 1.2 = 60, + 10 = 70. Reversed order would give 72.
			name: "chronic then emergency",
			base: fiftyPatient,
			mutate: func(p *types.PatientRecord) {
				p.ChronicDisease = true
				p.Emergency = true
			},
			wantScore: 70,
			wantSev:   types.SeverityCritical,
		},
		{
			name:      "icu floor on normal vitals",
			base:      normalPatient,
			mutate:    func(p *types.PatientRecord) { p.ICURequired = true },
			wantScore: 75,
			wantSev:   types.SeverityCritical,
		},
		{
			name: "icu floor keeps higher score",
			base: fiftyPatient,
			mutate: func(p *types.PatientRecord) {
				p.ChronicDisease = true
				p.Emergency = true
				p.ICURequired = true
				p.HeartRate = 200
				p.RespiratoryRate = 32
			},
			// (50 + 9 + 9) × 1.2 + 10 = 91.6
			wantScore: 91.6,
			wantSev:   types.SeverityCritical,
		},
		{
			name: "clamped at 100",
			base: fiftyPatient,
			mutate: func(p *types.PatientRecord) {
				p.HeartRate = 0
				p.RespiratoryRate = 0
				p.Age = 100
				p.BMI = 60
				p.Hemoglobin = 0
				p.Hydration = 0
				p.ChronicDisease = true
				p.Emergency = true
			},
			wantScore: 100,
			wantSev:   types.SeverityCritical,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.base()
			tc.mutate(&p)
			r := ComputeRisk(p)
			if !almostEqual(r.Score, tc.wantScore, 1e-9) {
				t.Errorf("Score = %.4f, want %.4f", r.Score, tc.wantScore)
			}
			if sev := Classify(r.Score); sev != tc.wantSev {
				t.Errorf("Classify(%.2f) = %q, want %q", r.Score, sev, tc.wantSev)
			}
		})
	}
}

func TestComputeRisk_BaseIgnoresFlags(t *testing.T) {
	p := fiftyPatient()
	p.ChronicDisease = true
	p.Emergency = true
	p.ICURequired = true
	r := ComputeRisk(p)
	if r.Base != 50 {
		t.Errorf("Base = %.4f, want 50", r.Base)
	}
	if r.Score != 75 {
		t.Errorf("Score = %.4f, want 75 (icu floor over 70)", r.Score)
	}
}

func TestComputeRisk_ICUFloorInvariant(t *testing.T) {
	p := normalPatient()
	p.ICURequired = true
	for _, hr := range []float64{0, 40, 80, 140, 220} {
		for _, spo2 := range []float64{60, 90, 99} {
			p.HeartRate = hr
			p.SpO2 = spo2
			if r := ComputeRisk(p); r.Score < 75 || r.Score > 100 {
				t.Errorf("hr=%.0f spo2=%.0f: Score = %.2f, want in [75,100]", hr, spo2, r.Score)
			}
		}
	}
}

func TestComputeRisk_TwoDecimalRounding(t *testing.T) {
	p := normalPatient()
	p.HeartRate = 101 // 0.01 × 0.09 × 100 = 0.09
	p.Age = 33        // 0.33 × 8 = 2.64
	r := ComputeRisk(p)
	if !almostEqual(r.Score, 2.73, 1e-9) {
		t.Errorf("Score = %.6f, want 2.73", r.Score)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, types.SeverityCritical},
		{70, types.SeverityCritical},
		{69.99, types.SeverityModerate},
		{40, types.SeverityModerate},
		{39.99, types.SeverityStable},
		{0, types.SeverityStable},
	}
	for _, tc := range tests {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%.2f) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestWeightsSumToOne(t *testing.T) {
	sum := weightHeartRate + weightBP + weightSpO2 + weightFever + weightRespiratory +
		weightSugar + weightAge + weightBMI + weightHemoglobin + weightHydration
	if !almostEqual(sum, 1.0, 1e-9) {
		t.Errorf("weights sum to %.6f, want 1.0", sum)
	}
}
