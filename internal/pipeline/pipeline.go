package pipeline

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/carepulse/carepulse/internal/capacity"
	"github.com/carepulse/carepulse/internal/clinical"
	"github.com/carepulse/carepulse/pkg/types"
)

// Pipeline runs the full analysis pass. It holds only the immutable alias
// table, so one value may serve concurrent callers.
type Pipeline struct {
	norm *Normalizer
}

// New returns a Pipeline using the built-in alias table with overrides
// applied.
func New(overrides FieldAliases) (*Pipeline, error) {
	n, err := NewNormalizer(overrides)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{norm: n}, nil
}

var defaultPipeline = &Pipeline{norm: mustNormalizer()}

func mustNormalizer() *Normalizer {
	n, err := NewNormalizer(nil)
	if err != nil {
		panic(err)
	}
	return n
}

// Run analyses rows against hospital with the built-in alias table.
func Run(rows []types.Row, hospital types.Row) (*types.Analysis, error) {
	return defaultPipeline.Run(rows, hospital)
}

// Run normalises and scores every patient, derives hospital stress from the
// Critical count, allocates beds over the whole population, routes each
// patient through the ER and returns the merged result in input order.
//
// A nil rows slice or nil hospital row fails with an *InputError; an empty,
// non-nil rows slice is a valid batch.
func (pl *Pipeline) Run(rows []types.Row, hospital types.Row) (*types.Analysis, error) {
	if rows == nil {
		return nil, invalid("patients", "patient collection is absent")
	}
	if hospital == nil {
		return nil, invalid("hospital", "hospital row is absent")
	}

	patients := make([]types.PatientResult, len(rows))
	seen := make(map[string]int, len(rows))
	critical := 0
	for i, row := range rows {
		rec := pl.norm.Patient(row, fmt.Sprintf("row-%d", i+1))
		if first, dup := seen[rec.PatientID]; dup {
			return nil, invalid(FieldPatientID, "duplicate identifier %q at rows %d and %d", rec.PatientID, first+1, i+1)
		}
		seen[rec.PatientID] = i

		patients[i] = score(rec)
		if patients[i].Severity == types.SeverityCritical {
			critical++
		}
	}

	stress := capacity.ComputeStress(Hospital(hospital), critical)

	cands := make([]capacity.Candidate, len(patients))
	for i, p := range patients {
		cands[i] = capacity.Candidate{
			PatientID: p.PatientID,
			RiskScore: p.RiskScore,
			Severity:  p.Severity,
			Emergency: p.Emergency,
		}
	}
	beds := capacity.AllocateBeds(cands, capacity.CapacityFrom(stress))
	for i := range patients {
		patients[i].BedAllocation = beds[i].Bed
		patients[i].BedAlert = beds[i].Alert
		patients[i].ERDecision = capacity.RouteER(stress, patients[i].Emergency)
	}

	log.Debug().
		Int("patients", len(patients)).
		Int("critical", critical).
		Float64("hsi", stress.HSI).
		Str("hospital", stress.HospitalID).
		Msg("pipeline: run complete")

	return &types.Analysis{
		Patients: patients,
		Hospital: stress,
		Summary:  Summarize(patients),
	}, nil
}

func score(rec types.PatientRecord) types.PatientResult {
	risk := clinical.ComputeRisk(rec)
	severity := clinical.Classify(risk.Score)
	return types.PatientResult{
		PatientRecord: rec,
		BaseScore:     risk.Base,
		RiskScore:     risk.Score,
		Severity:      severity,
		Components:    risk.Components,
		Diet:          clinical.RecommendDiet(rec),
		RoomTemp:      clinical.RecommendRoomTemp(severity, rec.BodyTemperature),
	}
}

// Summarize counts patients per severity, bed, diet, ER decision and bed
// alert, and averages the risk score. Patients without an alert are not
// counted in ByAlert.
func Summarize(patients []types.PatientResult) types.Summary {
	s := types.Summary{
		PatientCount: len(patients),
		BySeverity:   map[string]int{},
		ByBed:        map[string]int{},
		ByDiet:       map[string]int{},
		ByER:         map[string]int{},
		ByAlert:      map[string]int{},
	}
	var total float64
	for _, p := range patients {
		total += p.RiskScore
		s.BySeverity[p.Severity]++
		s.ByBed[p.BedAllocation]++
		s.ByDiet[p.Diet]++
		s.ByER[p.ERDecision]++
		if p.BedAlert != "" {
			s.ByAlert[p.BedAlert]++
		}
	}
	if len(patients) > 0 {
		s.MeanRisk = clinical.Round2(total / float64(len(patients)))
	}
	return s
}
