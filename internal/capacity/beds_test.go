package capacity

import (
	"testing"

	"github.com/carepulse/carepulse/pkg/types"
)

func crit(id string, score float64, emergency bool) Candidate {
	return Candidate{PatientID: id, RiskScore: score, Severity: types.SeverityCritical, Emergency: emergency}
}

func mod(id string, score float64) Candidate {
	return Candidate{PatientID: id, RiskScore: score, Severity: types.SeverityModerate}
}

func stable(id string, score float64) Candidate {
	return Candidate{PatientID: id, RiskScore: score, Severity: types.SeverityStable}
}

func TestAllocateBeds(t *testing.T) {
	tests := []struct {
		name     string
		cands    []Candidate
		capacity Capacity
		want     []Assignment
	}{
		{
			name:     "no ICU beds, every critical escalates",
			cands:    []Candidate{crit("a", 90, false), crit("b", 80, false)},
			capacity: Capacity{General: 50, ICU: 0, TotalBeds: 100},
			want: []Assignment{
				{BedICUEscalate, AlertICUFull},
				{BedICUEscalate, AlertICUFull},
			},
		},
		{
			name:     "tie on score, emergency wins the last ICU bed",
			cands:    []Candidate{crit("a", 80, false), crit("b", 80, true)},
			capacity: Capacity{General: 50, ICU: 1, TotalBeds: 100},
			want: []Assignment{
				{BedICUEscalate, AlertICUFull},
				{BedICU, ""},
			},
		},
		{
			name:     "higher score wins the last ICU bed",
			cands:    []Candidate{crit("a", 71, true), crit("b", 95, false)},
			capacity: Capacity{General: 50, ICU: 1, TotalBeds: 100},
			want: []Assignment{
				{BedICUEscalate, AlertICUFull},
				{BedICU, ""},
			},
		},
		{
			name:     "full tie keeps input order",
			cands:    []Candidate{crit("a", 80, false), crit("b", 80, false), crit("c", 80, false)},
			capacity: Capacity{General: 50, ICU: 2, TotalBeds: 100},
			want: []Assignment{
				{BedICU, ""},
				{BedICU, ""},
				{BedICUEscalate, AlertICUFull},
			},
		},
		{
			name:     "moderate held below 10% availability",
			cands:    []Candidate{mod("a", 50), mod("b", 45)},
			capacity: Capacity{General: 9, ICU: 5, TotalBeds: 100},
			want: []Assignment{
				{BedHold, AlertBedCritical},
				{BedHold, AlertBedCritical},
			},
		},
		{
			name:     "moderate at exactly 10% is admitted then overflows",
			cands:    []Candidate{mod("a", 50), mod("b", 60)},
			capacity: Capacity{General: 1, ICU: 5, TotalBeds: 10},
			want: []Assignment{
				{BedOverflow, AlertNoBeds},
				{BedGeneral, ""},
			},
		},
		{
			name:     "stable never consumes capacity",
			cands:    []Candidate{stable("a", 10), mod("b", 50), stable("c", 39)},
			capacity: Capacity{General: 1, ICU: 0, TotalBeds: 10},
			want: []Assignment{
				{BedObservation, ""},
				{BedGeneral, ""},
				{BedObservation, ""},
			},
		},
		{
			name:     "critical does not touch general beds",
			cands:    []Candidate{crit("a", 99, false), mod("b", 41)},
			capacity: Capacity{General: 1, ICU: 0, TotalBeds: 10},
			want: []Assignment{
				{BedICUEscalate, AlertICUFull},
				{BedGeneral, ""},
			},
		},
		{
			name:     "no beds at all holds moderates",
			cands:    []Candidate{mod("a", 50)},
			capacity: Capacity{},
			want:     []Assignment{{BedHold, AlertBedCritical}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AllocateBeds(tc.cands, tc.capacity)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d assignments, want %d", len(got), len(tc.want))
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("%s: got %+v, want %+v", tc.cands[i].PatientID, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestAllocateBeds_HoldGateIsNotRecomputed(t *testing.T) {
	// 10 free of 100 is exactly the gate. Consuming beds during the pass
	// must not flip later moderates to HOLD.
	cands := make([]Candidate, 12)
	for i := range cands {
		cands[i] = mod("m", 60-float64(i))
	}
	got := AllocateBeds(cands, Capacity{General: 10, ICU: 0, TotalBeds: 100})

	var general, overflow int
	for _, a := range got {
		switch a.Bed {
		case BedGeneral:
			general++
		case BedOverflow:
			overflow++
		default:
			t.Errorf("unexpected bed %q", a.Bed)
		}
	}
	if general != 10 || overflow != 2 {
		t.Errorf("general=%d overflow=%d, want 10/2", general, overflow)
	}
	if got[10].Alert != AlertNoBeds || got[11].Alert != AlertNoBeds {
		t.Errorf("lowest-ranked moderates should overflow, got %+v %+v", got[10], got[11])
	}
}

func TestAllocateBeds_DoesNotReorderInput(t *testing.T) {
	cands := []Candidate{stable("s", 5), crit("c", 90, false), mod("m", 50)}
	AllocateBeds(cands, Capacity{General: 5, ICU: 5, TotalBeds: 10})
	if cands[0].PatientID != "s" || cands[1].PatientID != "c" || cands[2].PatientID != "m" {
		t.Errorf("input slice reordered: %+v", cands)
	}
}

func TestAllocateBeds_Empty(t *testing.T) {
	if got := AllocateBeds(nil, Capacity{General: 1, ICU: 1, TotalBeds: 1}); len(got) != 0 {
		t.Errorf("got %d assignments for no candidates", len(got))
	}
}

func TestBedState_StepIsPure(t *testing.T) {
	s := bedState{icuLeft: 1, genLeft: 1}
	next, a := s.step(crit("a", 90, false))
	if a.Bed != BedICU {
		t.Fatalf("Bed = %q, want ICU", a.Bed)
	}
	if s.icuLeft != 1 {
		t.Errorf("receiver mutated: icuLeft = %d", s.icuLeft)
	}
	if next.icuLeft != 0 || next.genLeft != 1 {
		t.Errorf("next = %+v, want icu 0 gen 1", next)
	}
}

func TestRouteER(t *testing.T) {
	tests := []struct {
		name      string
		hsi, er   float64
		emergency bool
		want      string
	}{
		{"freeze above 0.9", 0.91, 0.2, true, ERDecisionFreeze},
		{"no freeze at exactly 0.9", 0.9, 0.2, false, ERDecisionAdmitted},
		{"redirect at 0.85 load", 0.5, 0.85, true, ERDecisionRedirect},
		{"redirect at boundary hsi", 0.9, 0.9, false, ERDecisionRedirect},
		{"emergency priority", 0.5, 0.84, true, ERDecisionEmergency},
		{"plain admission", 0.5, 0.1, false, ERDecisionAdmitted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := types.HospitalStress{HSI: tc.hsi, ERLoad: tc.er}
			if got := RouteER(s, tc.emergency); got != tc.want {
				t.Errorf("RouteER(hsi=%.2f, er=%.2f, %v) = %q, want %q", tc.hsi, tc.er, tc.emergency, got, tc.want)
			}
		})
	}
}
