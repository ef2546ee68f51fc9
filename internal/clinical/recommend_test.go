package clinical

import (
	"testing"

	"github.com/carepulse/carepulse/pkg/types"
)

func TestRecommendDiet(t *testing.T) {
	cases := []struct {
		name   string
		modify func(p *types.PatientRecord)
		want   string
	}{
		{"balanced", func(p *types.PatientRecord) {}, DietBalanced},
		{"sugar", func(p *types.PatientRecord) { p.BloodSugar = 201 }, DietLowCarb},
		{"sugar boundary", func(p *types.PatientRecord) { p.BloodSugar = 200 }, DietBalanced},
		{"sodium", func(p *types.PatientRecord) { p.SystolicBP = 151 }, DietLowSodium},
		{"fever", func(p *types.PatientRecord) { p.BodyTemperature = 38.6 }, DietHighFluid},
		{"iron", func(p *types.PatientRecord) { p.Hemoglobin = 9.9 }, DietIronRich},
		{"electrolyte", func(p *types.PatientRecord) { p.Hydration = 49 }, DietElectrolyte},
		{"sugar wins over sodium", func(p *types.PatientRecord) {
			p.BloodSugar = 300
			p.SystolicBP = 190
		}, DietLowCarb},
		{"sugar wins over iron", func(p *types.PatientRecord) {
			p.BloodSugar = 250
			p.Hemoglobin = 8
		}, DietLowCarb},
		{"fever wins over iron", func(p *types.PatientRecord) {
			p.BodyTemperature = 39.5
			p.Hemoglobin = 8
			p.Hydration = 30
		}, DietHighFluid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := normalPatient()
			tc.modify(&p)
			if got := RecommendDiet(p); got != tc.want {
				t.Errorf("RecommendDiet: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRecommendRoomTemp(t *testing.T) {
	cases := []struct {
		severity string
		temp     float64
		want     float64
	}{
		{types.SeverityCritical, 37, 23},
		{types.SeverityModerate, 37, 25},
		{types.SeverityStable, 37, 27},
		{types.SeverityCritical, 39.1, 21},
		{types.SeverityStable, 40, 25},
		{types.SeverityModerate, 39, 25},
		{"Unknown", 37, 27},
	}
	for _, tc := range cases {
		if got := RecommendRoomTemp(tc.severity, tc.temp); got != tc.want {
			t.Errorf("RecommendRoomTemp(%q, %v): got %v, want %v", tc.severity, tc.temp, got, tc.want)
		}
	}
}
