package pipeline

import (
	"github.com/carepulse/carepulse/pkg/types"
)

// FieldAliases overrides the ordered source list of a canonical patient
// field. It is read from the `fields:` section of the config file:
//
//	fields:
//	  heart_rate_bpm: [heart_rate_bpm, heart_rate, pulse]
//
// The list replaces the built-in one; the canonical name is not implied.
type FieldAliases map[string][]string

// numericField is one numeric patient field: the columns it may be read
// from, in priority order, and the reference value used when none of them
// holds a usable non-zero number.
type numericField struct {
	name    string
	sources []string
	def     float64
	set     func(p *types.PatientRecord, v float64)
}

// textField is a free-text patient field with its fallback.
type textField struct {
	name    string
	sources []string
	def     string
	set     func(p *types.PatientRecord, v string)
}

// flagField is a 0/1 patient flag. Absent means false.
type flagField struct {
	name    string
	sources []string
	set     func(p *types.PatientRecord, v bool)
}

// Canonical field names.
const (
	FieldPatientID = "patient_id"
)

func defaultNumericFields() []numericField {
	return []numericField{
		{"age", []string{"age"}, 50,
			func(p *types.PatientRecord, v float64) { p.Age = v }},
		{"heart_rate_bpm", []string{"heart_rate_bpm", "heart_rate"}, 80,
			func(p *types.PatientRecord, v float64) { p.HeartRate = v }},
		{"systolic_bp_mmHg", []string{"systolic_bp_mmHg", "systolic_bp"}, 120,
			func(p *types.PatientRecord, v float64) { p.SystolicBP = v }},
		{"diastolic_bp_mmHg", []string{"diastolic_bp_mmHg", "diastolic_bp"}, 80,
			func(p *types.PatientRecord, v float64) { p.DiastolicBP = v }},
		{"oxygen_saturation_percent", []string{"oxygen_saturation_percent", "spo2"}, 98,
			func(p *types.PatientRecord, v float64) { p.SpO2 = v }},
		{"body_temperature_celsius", []string{"body_temperature_celsius", "temperature"}, 37,
			func(p *types.PatientRecord, v float64) { p.BodyTemperature = v }},
		{"respiratory_rate_bpm", []string{"respiratory_rate_bpm", "respiratory_rate"}, 16,
			func(p *types.PatientRecord, v float64) { p.RespiratoryRate = v }},
		{"blood_sugar_mg_dl", []string{"blood_sugar_mg_dl", "blood_sugar"}, 120,
			func(p *types.PatientRecord, v float64) { p.BloodSugar = v }},
		{"bmi", []string{"bmi"}, 22,
			func(p *types.PatientRecord, v float64) { p.BMI = v }},
		{"hemoglobin_g_dl", []string{"hemoglobin_g_dl", "hemoglobin"}, 14,
			func(p *types.PatientRecord, v float64) { p.Hemoglobin = v }},
		{"hydration_level_percent", []string{"hydration_level_percent", "hydration_level"}, 98,
			func(p *types.PatientRecord, v float64) { p.Hydration = v }},
	}
}

func defaultTextFields() []textField {
	return []textField{
		{"gender", []string{"gender"}, "male",
			func(p *types.PatientRecord, v string) { p.Gender = v }},
		{"admission_type", []string{"admission_type"}, "Unknown",
			func(p *types.PatientRecord, v string) { p.AdmissionType = v }},
		{"diagnosis_category", []string{"diagnosis_category"}, "Unknown",
			func(p *types.PatientRecord, v string) { p.DiagnosisCategory = v }},
	}
}

func defaultFlagFields() []flagField {
	return []flagField{
		{"chronic_disease_flag", []string{"chronic_disease_flag"},
			func(p *types.PatientRecord, v bool) { p.ChronicDisease = v }},
		{"emergency_case_flag", []string{"emergency_case_flag"},
			func(p *types.PatientRecord, v bool) { p.Emergency = v }},
		{"icu_required_flag", []string{"icu_required_flag"},
			func(p *types.PatientRecord, v bool) { p.ICURequired = v }},
	}
}

// KnownFields lists every canonical patient field name an alias override
// may target.
func KnownFields() []string {
	out := []string{FieldPatientID}
	for _, f := range defaultNumericFields() {
		out = append(out, f.name)
	}
	for _, f := range defaultTextFields() {
		out = append(out, f.name)
	}
	for _, f := range defaultFlagFields() {
		out = append(out, f.name)
	}
	return out
}

// hospitalFields maps hospital row columns onto the record.
var hospitalFields = []struct {
	name string
	set  func(h *types.HospitalRecord, v float64)
}{
	{"total_beds", func(h *types.HospitalRecord, v float64) { h.TotalBeds = v }},
	{"occupied_beds", func(h *types.HospitalRecord, v float64) { h.OccupiedBeds = v }},
	{"icu_beds_total", func(h *types.HospitalRecord, v float64) { h.ICUBedsTotal = v }},
	{"icu_beds_occupied", func(h *types.HospitalRecord, v float64) { h.ICUBedsOccupied = v }},
	{"er_capacity", func(h *types.HospitalRecord, v float64) { h.ERCapacity = v }},
	{"er_occupied", func(h *types.HospitalRecord, v float64) { h.EROccupied = v }},
	{"ongoing_operations_count", func(h *types.HospitalRecord, v float64) { h.OngoingOperations = v }},
	{"available_doctors", func(h *types.HospitalRecord, v float64) { h.AvailableDoctors = v }},
	{"available_nurses", func(h *types.HospitalRecord, v float64) { h.AvailableNurses = v }},
	{"ventilators_available", func(h *types.HospitalRecord, v float64) { h.VentilatorsAvailable = v }},
	{"ambulance_available_count", func(h *types.HospitalRecord, v float64) { h.AmbulanceCount = v }},
	{"oxygen_supply_level_percent", func(h *types.HospitalRecord, v float64) { h.OxygenSupplyPercent = v }},
	{"room_temperature_celsius", func(h *types.HospitalRecord, v float64) { h.RoomTemperature = v }},
	{"total_patients_current", func(h *types.HospitalRecord, v float64) { h.TotalPatientsCurrent = v }},
}
