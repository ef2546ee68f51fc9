package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/carepulse/carepulse/internal/capacity"
	"github.com/carepulse/carepulse/internal/pipeline"
	"github.com/carepulse/carepulse/pkg/types"
)

func analysis(t *testing.T) *types.Analysis {
	t.Helper()
	a, err := pipeline.Run([]types.Row{
		{"patient_id": "P1", "icu_required_flag": 1},
		{"patient_id": "P2"},
	}, types.Row{
		"hospital_id":                 "H/7",
		"total_beds":                  100,
		"occupied_beds":               50,
		"icu_beds_total":              10,
		"icu_beds_occupied":           10,
		"er_capacity":                 20,
		"er_occupied":                 5,
		"available_doctors":           10,
		"ventilators_available":       4,
		"oxygen_supply_level_percent": 90,
	})
	require.NoError(t, err)
	return a
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWrite_Sheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, analysis(t)))

	f := open(t, buf.Bytes())
	require.Equal(t, []string{SheetPatients, SheetHospital, SheetSummary}, f.GetSheetList())
}

func TestWrite_Patients(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, analysis(t)))

	rows, err := open(t, buf.Bytes()).GetRows(SheetPatients)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, PatientHeaders(), rows[0])

	col := func(name string) int {
		i := indexOf(rows[0], name)
		require.GreaterOrEqual(t, i, 0, "column %q", name)
		return i
	}
	require.Equal(t, "P1", rows[1][col("Patient ID")])
	require.Equal(t, "75", rows[1][col("Risk Score")])
	require.Equal(t, types.SeverityCritical, rows[1][col("Severity")])
	require.Equal(t, capacity.BedICUEscalate, rows[1][col("Bed Allocation")])
	require.Equal(t, "Yes", rows[1][col("ICU Required")])

	require.Equal(t, "P2", rows[2][col("Patient ID")])
	require.Equal(t, types.SeverityStable, rows[2][col("Severity")])
	require.Equal(t, capacity.BedObservation, rows[2][col("Bed Allocation")])

	for _, k := range deviationKeys {
		col("Dev " + k)
	}
	require.Equal(t, "0", rows[2][col("Dev spo2")])
	require.Equal(t, "0", rows[2][col("Dev hr")])
}

func TestDeviationColumns_CoverEveryComponent(t *testing.T) {
	comps := types.Deviations{
		HeartRate: 0.1, BloodPressure: 0.2, SpO2: 0.3, Fever: 0.4, RespiratoryRate: 0.5,
		BloodSugar: 0.6, Age: 0.7, BMI: 0.8, Hemoglobin: 0.9, Hydration: 1,
	}
	p := types.PatientResult{Components: comps}
	require.Len(t, deviationKeys, len(comps.Map()))
	for i, c := range deviationColumns() {
		v, ok := comps.Map()[deviationKeys[i]]
		require.True(t, ok, deviationKeys[i])
		require.Equal(t, v, c.value(p))
	}
}

func TestWrite_HospitalAndSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, analysis(t)))
	f := open(t, buf.Bytes())

	hosp, err := f.GetRows(SheetHospital)
	require.NoError(t, err)
	require.Equal(t, []string{"Metric", "Value"}, hosp[0])
	require.Equal(t, []string{"Hospital ID", "H/7"}, hosp[1])

	var advisories []string
	for _, r := range hosp {
		if r[0] == "Advisory" {
			advisories = append(advisories, r[1])
		}
	}
	require.Equal(t, []string{capacity.AdvisoryICUTransfer}, advisories)

	sum, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Equal(t, []string{"Group", "Label", "Count"}, sum[0])
	require.Equal(t, []string{"Patients", "Total", "2"}, sum[1])

	found := false
	for _, r := range sum {
		if r[0] == "Severity" && r[1] == types.SeverityCritical {
			require.Equal(t, "1", r[2])
			found = true
		}
	}
	require.True(t, found, "summary lacks the Critical count")
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := WriteFile(dir, analysis(t), at)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "carepulse-H_7-20260304-050607.xlsx"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, open(t, data).GetSheetList(), 3)
}

func TestWrite_EmptyBatch(t *testing.T) {
	a, err := pipeline.Run([]types.Row{}, types.Row{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))
	rows, err := open(t, buf.Bytes()).GetRows(SheetPatients)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
