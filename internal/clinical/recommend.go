package clinical

import "github.com/carepulse/carepulse/pkg/types"

// Diet labels, in rule order.
const (
	DietLowCarb     = "Low-Carbohydrate Diet"
	DietLowSodium   = "Low-Sodium Diet"
	DietHighFluid   = "High-Fluid Diet"
	DietIronRich    = "Iron-Rich Diet"
	DietElectrolyte = "Electrolyte-Enriched Diet"
	DietBalanced    = "Balanced Diet"
)

// dietRule pairs a predicate over raw vitals with the diet it prescribes.
type dietRule struct {
	diet    string
	matches func(p types.PatientRecord) bool
}

// dietRules are evaluated top to bottom; the first match wins.
var dietRules = []dietRule{
	{DietLowCarb, func(p types.PatientRecord) bool { return p.BloodSugar > 200 }},
	{DietLowSodium, func(p types.PatientRecord) bool { return p.SystolicBP > 150 }},
	{DietHighFluid, func(p types.PatientRecord) bool { return p.BodyTemperature > 38.5 }},
	{DietIronRich, func(p types.PatientRecord) bool { return p.Hemoglobin < 10 }},
	{DietElectrolyte, func(p types.PatientRecord) bool { return p.Hydration < 50 }},
}

// RecommendDiet returns the diet for p from its raw vitals.
func RecommendDiet(p types.PatientRecord) string {
	for _, r := range dietRules {
		if r.matches(p) {
			return r.diet
		}
	}
	return DietBalanced
}

// Room temperature targets in °C.
var baseRoomTemp = map[string]float64{
	types.SeverityCritical: 23,
	types.SeverityModerate: 25,
	types.SeverityStable:   27,
}

const (
	feverRoomThreshold = 39.0
	feverRoomCooling   = 2.0
)

// RecommendRoomTemp returns the target room temperature for a severity tier,
// lowered by 2°C when the patient's body temperature exceeds 39°C.
// An unknown tier is treated as Stable.
func RecommendRoomTemp(severity string, bodyTemp float64) float64 {
	base, ok := baseRoomTemp[severity]
	if !ok {
		base = baseRoomTemp[types.SeverityStable]
	}
	if bodyTemp > feverRoomThreshold {
		return base - feverRoomCooling
	}
	return base
}
