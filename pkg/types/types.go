package types

// Row is one raw input record: column name to cell value. Values arrive as
// whatever the source produced (JSON numbers, spreadsheet strings, booleans).
type Row map[string]any

// Severity tiers derived from the risk score.
const (
	SeverityCritical = "Critical"
	SeverityModerate = "Moderate"
	SeverityStable   = "Stable"
)

// PatientRecord is a normalised patient row. Every numeric field holds either
// the supplied measurement or its clinical reference default.
type PatientRecord struct {
	PatientID         string  `json:"patient_id"`
	Age               float64 `json:"age"`
	Gender            string  `json:"gender"`
	HeartRate         float64 `json:"heart_rate_bpm"`
	SystolicBP        float64 `json:"systolic_bp_mmHg"`
	DiastolicBP       float64 `json:"diastolic_bp_mmHg"`
	SpO2              float64 `json:"oxygen_saturation_percent"`
	BodyTemperature   float64 `json:"body_temperature_celsius"`
	RespiratoryRate   float64 `json:"respiratory_rate_bpm"`
	BloodSugar        float64 `json:"blood_sugar_mg_dl"`
	BMI               float64 `json:"bmi"`
	Hemoglobin        float64 `json:"hemoglobin_g_dl"`
	Hydration         float64 `json:"hydration_level_percent"`
	ChronicDisease    bool    `json:"chronic_disease_flag"`
	Emergency         bool    `json:"emergency_case_flag"`
	ICURequired       bool    `json:"icu_required_flag"`
	AdmissionType     string  `json:"admission_type"`
	DiagnosisCategory string  `json:"diagnosis_category"`
}

// Deviations holds the ten normalised component deviations, each in [0,1].
type Deviations struct {
	HeartRate       float64 `json:"hr"`
	BloodPressure   float64 `json:"bp"`
	SpO2            float64 `json:"spo2"`
	Fever           float64 `json:"fever"`
	RespiratoryRate float64 `json:"rr"`
	BloodSugar      float64 `json:"sugar"`
	Age             float64 `json:"age"`
	BMI             float64 `json:"bmi"`
	Hemoglobin      float64 `json:"hgb"`
	Hydration       float64 `json:"hydration"`
}

// Map returns the deviations keyed by component name.
func (d Deviations) Map() map[string]float64 {
	return map[string]float64{
		"hr":        d.HeartRate,
		"bp":        d.BloodPressure,
		"spo2":      d.SpO2,
		"fever":     d.Fever,
		"rr":        d.RespiratoryRate,
		"sugar":     d.BloodSugar,
		"age":       d.Age,
		"bmi":       d.BMI,
		"hgb":       d.Hemoglobin,
		"hydration": d.Hydration,
	}
}

// PatientResult is a PatientRecord enriched with scores and decisions.
type PatientResult struct {
	PatientRecord

	BaseScore  float64    `json:"base_score"`
	RiskScore  float64    `json:"risk_score"`
	Severity   string     `json:"severity"`
	Components Deviations `json:"comps"`
	Diet       string     `json:"diet"`
	RoomTemp   float64    `json:"rec_temp"`

	BedAllocation string `json:"bed_allocation"`
	BedAlert      string `json:"bed_alert"`
	ERDecision    string `json:"er_decision"`
}

// HospitalRecord is one hospital resource snapshot.
type HospitalRecord struct {
	HospitalID           string  `json:"hospital_id"`
	TotalBeds            float64 `json:"total_beds"`
	OccupiedBeds         float64 `json:"occupied_beds"`
	ICUBedsTotal         float64 `json:"icu_beds_total"`
	ICUBedsOccupied      float64 `json:"icu_beds_occupied"`
	ERCapacity           float64 `json:"er_capacity"`
	EROccupied           float64 `json:"er_occupied"`
	OngoingOperations    float64 `json:"ongoing_operations_count"`
	AvailableDoctors     float64 `json:"available_doctors"`
	AvailableNurses      float64 `json:"available_nurses"`
	VentilatorsAvailable float64 `json:"ventilators_available"`
	AmbulanceCount       float64 `json:"ambulance_available_count"`
	OxygenSupplyPercent  float64 `json:"oxygen_supply_level_percent"`
	RoomTemperature      float64 `json:"room_temperature_celsius"`
	TotalPatientsCurrent float64 `json:"total_patients_current"`
}

// HospitalStress is derived from a HospitalRecord and the critical patient
// count of the batch being analysed.
type HospitalStress struct {
	HospitalID string `json:"hospital_id"`

	BedRatio      float64 `json:"bed_ratio"`
	ICURatio      float64 `json:"icu_ratio"`
	ERLoad        float64 `json:"er_load"`
	OpLoad        float64 `json:"op_load"`
	VentPressure  float64 `json:"vent_pressure"`
	HSI           float64 `json:"hsi"`
	StressStatus  string  `json:"stress_status"`
	ERStatus      string  `json:"er_status"`
	CriticalCount int     `json:"critical_count"`

	// Raw counts consumed by the bed allocator.
	AvailableGeneral int `json:"avail_gen"`
	AvailableICU     int `json:"avail_icu"`
	TotalBeds        int `json:"total_beds"`
	ICUTotal         int `json:"icu_total"`

	Ventilators     int     `json:"ventilators"`
	Doctors         int     `json:"doctors"`
	Nurses          int     `json:"nurses"`
	Ambulances      int     `json:"ambulances"`
	OxygenPercent   float64 `json:"oxygen"`
	AmbientTemp     float64 `json:"ambient_temp"`
	CurrentPatients int     `json:"total_patients_current"`

	// Advisories are supplementary operational warnings; they never change
	// the status labels above.
	Advisories []string `json:"advisories"`
}

// Summary aggregates one analysis for dashboards and alert rules.
type Summary struct {
	PatientCount int            `json:"patient_count"`
	MeanRisk     float64        `json:"mean_risk"`
	BySeverity   map[string]int `json:"by_severity"`
	ByBed        map[string]int `json:"by_bed"`
	ByDiet       map[string]int `json:"by_diet"`
	ByER         map[string]int `json:"by_er"`
	ByAlert      map[string]int `json:"by_alert"`
}

// Analysis is the full output of one pipeline pass.
type Analysis struct {
	Patients []PatientResult `json:"patients"`
	Hospital HospitalStress  `json:"hospital"`
	Summary  Summary         `json:"summary"`
}
