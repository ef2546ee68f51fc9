// Package pipeline turns raw patient and hospital rows into an Analysis.
//
// Normalisation reads each canonical field from an ordered list of source
// columns; the first usable non-zero value wins, else the clinical reference
// default applies (heart rate 80, systolic 120, diastolic 80, SpO2 98,
// temperature 37, respiratory rate 16, sugar 120, BMI 22, hemoglobin 14,
// hydration 98, age 50, gender male). The list for any field can be replaced
// through FieldAliases.
//
// Run is synchronous and keeps no state between calls. Bed allocation is the
// only step that depends on the whole batch.
package pipeline
