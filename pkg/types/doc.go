// Package types defines the records shared by the analyzer, the server and
// the scoring pipeline: raw input rows, normalised patient and hospital
// records, and the enriched results handed to presentation layers.
package types
