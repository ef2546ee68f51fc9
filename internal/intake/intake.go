package intake

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/carepulse/carepulse/pkg/types"
)

var (
	// ErrUnsupported is returned for file extensions with no decoder.
	ErrUnsupported = errors.New("intake: unsupported file type")

	// ErrNoRows is returned when a hospital source holds no data row.
	ErrNoRows = errors.New("intake: no data rows")
)

// Format identifies a decoder.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatOf picks the decoder for a file name by extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(name))
	}
}

// ReadFile loads every data row from path.
func ReadFile(path string) ([]types.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("intake: open: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read decodes rows from r; name selects the format by extension. A source
// with a header and no data rows yields an empty, non-nil slice.
func Read(r io.Reader, name string) ([]types.Row, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var rows []types.Row
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r)
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatJSON:
		rows, err = readJSON(r)
	}
	if err != nil {
		return nil, fmt.Errorf("intake: %s: %w", name, err)
	}
	log.Debug().Str("source", name).Str("format", string(format)).Int("rows", len(rows)).Msg("intake: decoded")
	return rows, nil
}

// ReadHospitalFile loads the first data row of path.
func ReadHospitalFile(path string) (types.Row, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return First(rows, path)
}

// First returns rows[0], or ErrNoRows.
func First(rows []types.Row, name string) (types.Row, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRows, name)
	}
	if len(rows) > 1 {
		log.Warn().Str("source", name).Int("rows", len(rows)).Msg("intake: hospital sheet has several rows, using the first")
	}
	return rows[0], nil
}

// readXLSX reads the first sheet. Row 1 is the header.
func readXLSX(r io.Reader) ([]types.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromGrid(grid), nil
}

func readCSV(r io.Reader) ([]types.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(grid) > 0 && len(grid[0]) > 0 {
		grid[0][0] = strings.TrimPrefix(grid[0][0], "\ufeff")
	}
	return fromGrid(grid), nil
}

// readJSON accepts an array of objects or a single object. Numbers are kept
// as json.Number so integers survive unchanged.
func readJSON(r io.Reader) ([]types.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []types.Row{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '{' {
		var one types.Row
		if err := dec.Decode(&one); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return []types.Row{one}, nil
	}
	var many []types.Row
	if err := dec.Decode(&many); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if many == nil {
		many = []types.Row{}
	}
	return many, nil
}

// fromGrid maps a header row plus data rows onto Rows. Blank cells are left
// out so normalisation sees them as absent; wholly blank rows are skipped.
func fromGrid(grid [][]string) []types.Row {
	rows := []types.Row{}
	if len(grid) == 0 {
		return rows
	}
	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}
	for _, cells := range grid[1:] {
		row := types.Row{}
		for i, cell := range cells {
			if i >= len(header) || header[i] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			if _, dup := row[header[i]]; dup {
				continue
			}
			row[header[i]] = v
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}
