package capacity

import (
	"sort"

	"github.com/carepulse/carepulse/pkg/types"
)

// Bed labels.
const (
	BedICU         = "ICU"
	BedICUEscalate = "ICU — ESCALATION ALERT"
	BedHold        = "HOLD — Stop Admissions"
	BedGeneral     = "General Bed"
	BedOverflow    = "Overflow"
	BedObservation = "Observation Ward"
)

// Alert codes attached to a bed assignment.
const (
	AlertICUFull     = "ICU FULL"
	AlertBedCritical = "BED CRITICAL <10%"
	AlertNoBeds      = "NO BEDS"
)

// holdRatio is the general-bed availability below which Moderate admissions
// are held.
const holdRatio = 0.10

// Candidate is the slice of a scored patient the allocator needs.
type Candidate struct {
	PatientID string
	RiskScore float64
	Severity  string
	Emergency bool
}

// Assignment is the bed decision for one patient. Alert is empty when no
// exceptional condition applies.
type Assignment struct {
	Bed   string
	Alert string
}

// Capacity is the free bed stock an allocation pass starts from.
type Capacity struct {
	General   int
	ICU       int
	TotalBeds int
}

// CapacityFrom extracts the allocator inputs from a stress snapshot.
func CapacityFrom(s types.HospitalStress) Capacity {
	return Capacity{General: s.AvailableGeneral, ICU: s.AvailableICU, TotalBeds: s.TotalBeds}
}

// bedState is the value threaded through the allocation fold. step never
// mutates its receiver; it returns the successor state.
type bedState struct {
	icuLeft int
	genLeft int
	// hold is fixed from the pre-allocation ratio for the whole pass.
	hold bool
}

func (s bedState) step(c Candidate) (bedState, Assignment) {
	switch c.Severity {
	case types.SeverityCritical:
		if s.icuLeft > 0 {
			s.icuLeft--
			return s, Assignment{Bed: BedICU}
		}
		return s, Assignment{Bed: BedICUEscalate, Alert: AlertICUFull}
	case types.SeverityModerate:
		if s.hold {
			return s, Assignment{Bed: BedHold, Alert: AlertBedCritical}
		}
		if s.genLeft > 0 {
			s.genLeft--
			return s, Assignment{Bed: BedGeneral}
		}
		return s, Assignment{Bed: BedOverflow, Alert: AlertNoBeds}
	default:
		return s, Assignment{Bed: BedObservation}
	}
}

// AllocateBeds assigns a bed to every candidate. Candidates are ranked by
// risk score descending, emergencies first on equal score, and otherwise in
// input order; capacity is then consumed greedily in that order.
//
// The result is indexed like cands.
func AllocateBeds(cands []Candidate, capacity Capacity) []Assignment {
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := cands[order[a]], cands[order[b]]
		if ca.RiskScore != cb.RiskScore {
			return ca.RiskScore > cb.RiskScore
		}
		return ca.Emergency && !cb.Emergency
	})

	state := bedState{
		icuLeft: capacity.ICU,
		genLeft: capacity.General,
		hold:    availability(capacity) < holdRatio,
	}
	out := make([]Assignment, len(cands))
	for _, idx := range order {
		var a Assignment
		state, a = state.step(cands[idx])
		out[idx] = a
	}
	return out
}

// availability is the pre-allocation general-bed ratio. A hospital without
// beds counts as 0% available.
func availability(c Capacity) float64 {
	if c.TotalBeds <= 0 {
		return 0
	}
	return float64(c.General) / float64(c.TotalBeds)
}
