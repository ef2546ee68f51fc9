// Package intake reads patient and hospital rows from spreadsheets.
//
// Supported inputs, chosen by file extension:
//   - .xlsx/.xlsm: first sheet, row 1 is the header (excelize)
//   - .csv: row 1 is the header, a UTF-8 BOM is tolerated
//   - .json: an array of objects, or one object
//
// Cells come back as strings (json numbers as json.Number); type coercion
// and defaults belong to the pipeline's normaliser.
package intake
