package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/carepulse/carepulse/pkg/types"
)

// Sheet names, in workbook order.
const (
	SheetPatients = "Patients"
	SheetHospital = "Hospital"
	SheetSummary  = "Summary"
)

type column struct {
	header string
	width  float64
	value  func(p types.PatientResult) any
}

var patientColumns = append(baseColumns, deviationColumns()...)

var baseColumns = []column{
	{"Patient ID", 14, func(p types.PatientResult) any { return p.PatientID }},
	{"Age", 8, func(p types.PatientResult) any { return p.Age }},
	{"Gender", 10, func(p types.PatientResult) any { return p.Gender }},
	{"Admission", 14, func(p types.PatientResult) any { return p.AdmissionType }},
	{"Diagnosis", 16, func(p types.PatientResult) any { return p.DiagnosisCategory }},
	{"Heart Rate", 11, func(p types.PatientResult) any { return p.HeartRate }},
	{"Systolic", 10, func(p types.PatientResult) any { return p.SystolicBP }},
	{"Diastolic", 10, func(p types.PatientResult) any { return p.DiastolicBP }},
	{"SpO2 %", 9, func(p types.PatientResult) any { return p.SpO2 }},
	{"Temp °C", 9, func(p types.PatientResult) any { return p.BodyTemperature }},
	{"Resp Rate", 10, func(p types.PatientResult) any { return p.RespiratoryRate }},
	{"Sugar", 9, func(p types.PatientResult) any { return p.BloodSugar }},
	{"BMI", 8, func(p types.PatientResult) any { return p.BMI }},
	{"Hemoglobin", 11, func(p types.PatientResult) any { return p.Hemoglobin }},
	{"Hydration %", 12, func(p types.PatientResult) any { return p.Hydration }},
	{"Chronic", 9, func(p types.PatientResult) any { return yesNo(p.ChronicDisease) }},
	{"Emergency", 10, func(p types.PatientResult) any { return yesNo(p.Emergency) }},
	{"ICU Required", 12, func(p types.PatientResult) any { return yesNo(p.ICURequired) }},
	{"Base Score", 11, func(p types.PatientResult) any { return p.BaseScore }},
	{"Risk Score", 11, func(p types.PatientResult) any { return p.RiskScore }},
	{"Severity", 11, func(p types.PatientResult) any { return p.Severity }},
	{"Diet", 26, func(p types.PatientResult) any { return p.Diet }},
	{"Room Temp °C", 13, func(p types.PatientResult) any { return p.RoomTemp }},
	{"Bed Allocation", 26, func(p types.PatientResult) any { return p.BedAllocation }},
	{"Bed Alert", 20, func(p types.PatientResult) any { return p.BedAlert }},
	{"ER Decision", 30, func(p types.PatientResult) any { return p.ERDecision }},
}

// deviationKeys orders the risk component columns.
var deviationKeys = []string{"hr", "bp", "spo2", "fever", "rr", "sugar", "age", "bmi", "hgb", "hydration"}

func deviationColumns() []column {
	cols := make([]column, len(deviationKeys))
	for i, k := range deviationKeys {
		cols[i] = column{"Dev " + k, 10, func(p types.PatientResult) any { return p.Components.Map()[k] }}
	}
	return cols
}

// PatientHeaders returns the Patients sheet header row.
func PatientHeaders() []string {
	out := make([]string, len(patientColumns))
	for i, c := range patientColumns {
		out[i] = c.header
	}
	return out
}

// severityFill colours the Severity cell.
var severityFill = map[string]string{
	types.SeverityCritical: "#F8D7DA",
	types.SeverityModerate: "#FFF3CD",
	types.SeverityStable:   "#D4EDDA",
}

// Write renders a as an .xlsx workbook to w.
func Write(w io.Writer, a *types.Analysis) error {
	f, err := build(a)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// WriteFile writes a into dir as carepulse-<hospital>-<timestamp>.xlsx and
// returns the path. dir is created if needed.
func WriteFile(dir string, a *types.Analysis, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	id := unsafeName.ReplaceAllString(a.Hospital.HospitalID, "_")
	if id == "" {
		id = "hospital"
	}
	path := filepath.Join(dir, fmt.Sprintf("carepulse-%s-%s.xlsx", id, at.UTC().Format("20060102-150405")))

	f, err := build(a)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("report: save: %w", err)
	}
	return path, nil
}

func build(a *types.Analysis) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetPatients); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: %w", err)
	}
	for _, name := range []string{SheetHospital, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("report: create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("report: header style: %w", err)
	}

	steps := []func(*excelize.File, *types.Analysis, int) error{
		writePatients,
		writeHospital,
		writeSummary,
	}
	for _, step := range steps {
		if err := step(f, a, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("report: %w", err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writePatients(f *excelize.File, a *types.Analysis, header int) error {
	headers := PatientHeaders()
	if err := writeHeader(f, SheetPatients, headers, header); err != nil {
		return err
	}
	for i, c := range patientColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetPatients, col, col, c.width); err != nil {
			return err
		}
	}

	fills := make(map[string]int, len(severityFill))
	for sev, color := range severityFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("severity style: %w", err)
		}
		fills[sev] = id
	}
	sevCol := indexOf(headers, "Severity") + 1

	for r, p := range a.Patients {
		values := make([]any, len(patientColumns))
		for i, c := range patientColumns {
			values[i] = c.value(p)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetPatients, cell, &values); err != nil {
			return fmt.Errorf("patient row %d: %w", r+1, err)
		}
		if style, ok := fills[p.Severity]; ok {
			sc, _ := excelize.CoordinatesToCellName(sevCol, r+2)
			if err := f.SetCellStyle(SheetPatients, sc, sc, style); err != nil {
				return err
			}
		}
	}

	return f.SetPanes(SheetPatients, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeHospital(f *excelize.File, a *types.Analysis, header int) error {
	h := a.Hospital
	rows := [][]any{
		{"Hospital ID", h.HospitalID},
		{"Hospital Stress Index", h.HSI},
		{"Stress Status", h.StressStatus},
		{"ER Status", h.ERStatus},
		{"Free Bed Ratio", h.BedRatio},
		{"Free ICU Ratio", h.ICURatio},
		{"ER Load", h.ERLoad},
		{"Operations per Doctor", h.OpLoad},
		{"Ventilator Pressure", h.VentPressure},
		{"Critical Patients", h.CriticalCount},
		{"Free General Beds", h.AvailableGeneral},
		{"Free ICU Beds", h.AvailableICU},
		{"Total Beds", h.TotalBeds},
		{"ICU Beds", h.ICUTotal},
		{"Ventilators", h.Ventilators},
		{"Doctors", h.Doctors},
		{"Nurses", h.Nurses},
		{"Ambulances", h.Ambulances},
		{"Oxygen Supply %", h.OxygenPercent},
		{"Room Temperature °C", h.AmbientTemp},
		{"Current Patients", h.CurrentPatients},
	}
	for _, adv := range h.Advisories {
		rows = append(rows, []any{"Advisory", adv})
	}

	if err := writeHeader(f, SheetHospital, []string{"Metric", "Value"}, header); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetHospital, "A", "B", 30); err != nil {
		return err
	}
	return writeRows(f, SheetHospital, rows)
}

func writeSummary(f *excelize.File, a *types.Analysis, header int) error {
	s := a.Summary
	rows := [][]any{
		{"Patients", "Total", s.PatientCount},
		{"Risk", "Mean Score", s.MeanRisk},
	}
	groups := []struct {
		name   string
		counts map[string]int
	}{
		{"Severity", s.BySeverity},
		{"Bed", s.ByBed},
		{"Diet", s.ByDiet},
		{"ER Decision", s.ByER},
		{"Bed Alert", s.ByAlert},
	}
	for _, g := range groups {
		for _, label := range sortedKeys(g.counts) {
			rows = append(rows, []any{g.name, label, g.counts[label]})
		}
	}

	if err := writeHeader(f, SheetSummary, []string{"Group", "Label", "Count"}, header); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "B", "B", 32); err != nil {
		return err
	}
	return writeRows(f, SheetSummary, rows)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("%s header %s: %w", sheet, cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[r]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
