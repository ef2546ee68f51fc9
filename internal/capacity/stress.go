package capacity

import (
	"math"

	"github.com/carepulse/carepulse/pkg/types"
)

// Weight constants for the Hospital Stress Index. They must sum to 1.0.
const (
	weightBeds       = 0.28
	weightICU        = 0.28
	weightER         = 0.24
	weightOperations = 0.12
	weightVentilator = 0.08
)

// Stress status labels.
const (
	StatusEscalation = "Emergency Escalation"
	StatusWarning    = "Capacity Warning"
	StatusNormal     = "Normal Operations"
)

// ER status labels.
const (
	ERFreeze   = "TEMPORARY ER FREEZE"
	ERRedirect = "REDIRECT to Nearby Hospital"
	EROpen     = "ER OPEN — Admitting"
)

// Thresholds. Status uses >= on hsiEscalation; the ER freeze uses > on the
// same value, so hsi == 0.9 escalates without freezing the ER.
const (
	hsiEscalation  = 0.9
	hsiWarning     = 0.75
	erRedirectLoad = 0.85
)

// Advisory codes attached to HospitalStress.Advisories.
const (
	AdvisoryOxygenCrisis       = "OXYGEN CRISIS ALERT"
	AdvisoryVentilatorShortage = "VENTILATOR SHORTAGE"
	AdvisoryICUTransfer        = "ICU TRANSFER ALERT"

	oxygenCrisisPercent = 40.0
)

// ComputeStress derives the stress snapshot for h given the number of
// Critical patients in the batch.
//
//	hsi = 0.28×(1−bedRatio) + 0.28×(1−icuRatio) + 0.24×erLoad
//	    + 0.12×min(1,opLoad) + 0.08×min(1,ventPressure/2)
//
// Zero or negative capacity totals are treated as fully stressed: the free
// bed and ICU ratios become 0 and the ER load becomes 1.
func ComputeStress(h types.HospitalRecord, criticalCount int) types.HospitalStress {
	freeGen := h.TotalBeds - h.OccupiedBeds
	freeICU := h.ICUBedsTotal - h.ICUBedsOccupied

	bedRatio := ratioOr(freeGen, h.TotalBeds, 0)
	icuRatio := ratioOr(freeICU, h.ICUBedsTotal, 0)
	erLoad := ratioOr(h.EROccupied, h.ERCapacity, 1)
	opLoad := ratioOr(h.OngoingOperations, h.AvailableDoctors, 1)
	ventPressure := ratioOr(float64(criticalCount), h.VentilatorsAvailable, 1)

	hsi := weightBeds*(1-bedRatio) +
		weightICU*(1-icuRatio) +
		weightER*erLoad +
		weightOperations*math.Min(1, opLoad) +
		weightVentilator*math.Min(1, ventPressure/2)
	hsi = round4(hsi)

	s := types.HospitalStress{
		HospitalID:    h.HospitalID,
		BedRatio:      bedRatio,
		ICURatio:      icuRatio,
		ERLoad:        erLoad,
		OpLoad:        opLoad,
		VentPressure:  ventPressure,
		HSI:           hsi,
		StressStatus:  stressStatus(hsi),
		ERStatus:      erStatus(hsi, erLoad),
		CriticalCount: criticalCount,

		AvailableGeneral: int(freeGen),
		AvailableICU:     int(freeICU),
		TotalBeds:        int(h.TotalBeds),
		ICUTotal:         int(h.ICUBedsTotal),

		Ventilators:     int(h.VentilatorsAvailable),
		Doctors:         int(h.AvailableDoctors),
		Nurses:          int(h.AvailableNurses),
		Ambulances:      int(h.AmbulanceCount),
		OxygenPercent:   h.OxygenSupplyPercent,
		AmbientTemp:     h.RoomTemperature,
		CurrentPatients: int(h.TotalPatientsCurrent),
	}
	s.Advisories = advisories(h, criticalCount, freeICU)
	return s
}

func stressStatus(hsi float64) string {
	switch {
	case hsi >= hsiEscalation:
		return StatusEscalation
	case hsi >= hsiWarning:
		return StatusWarning
	default:
		return StatusNormal
	}
}

func erStatus(hsi, erLoad float64) string {
	switch {
	case hsi > hsiEscalation:
		return ERFreeze
	case erLoad >= erRedirectLoad:
		return ERRedirect
	default:
		return EROpen
	}
}

// advisories lists operational warnings that sit beside the status labels.
func advisories(h types.HospitalRecord, criticalCount int, freeICU float64) []string {
	out := []string{}
	if h.OxygenSupplyPercent < oxygenCrisisPercent {
		out = append(out, AdvisoryOxygenCrisis)
		if h.VentilatorsAvailable < float64(criticalCount) {
			out = append(out, AdvisoryVentilatorShortage)
		}
	}
	if freeICU <= 0 {
		out = append(out, AdvisoryICUTransfer)
	}
	return out
}

// ratioOr returns num/den, or fallback when den is not positive.
func ratioOr(num, den, fallback float64) float64 {
	if den <= 0 {
		return fallback
	}
	return num / den
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
