// Package report exports an Analysis as an .xlsx workbook with three
// sheets: Patients (one row per enriched patient, severity colour-coded),
// Hospital (stress metrics and advisories) and Summary (counts per group).
package report
