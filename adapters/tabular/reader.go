// Package tabular loads and saves booking tables as CSV or XLSX files.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"bookingeda/domain/table"
	"bookingeda/internal"
	"bookingeda/internal/errors"
)

// File types understood by Reader and Write
const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

// DefaultSheet is used for XLSX output and as the fallback input sheet
const DefaultSheet = "Sheet1"

// Reader handles reading CSV and Excel files into a typed table
type Reader struct {
	filePath string
	fileType string
	sheet    string
	coercer  *TypeCoercer
}

// NewReader creates a reader; the file type follows the extension and
// anything that is not .csv is opened as a workbook
func NewReader(filePath string) *Reader {
	return &Reader{
		filePath: filePath,
		fileType: fileTypeOf(filePath),
		coercer:  NewTypeCoercer(DefaultCoercionConfig()),
	}
}

// WithSheet selects a workbook sheet instead of the first one
func (r *Reader) WithSheet(name string) *Reader {
	r.sheet = name
	return r
}

// WithCoercion replaces the missing tokens and date layouts
func (r *Reader) WithCoercion(config CoercionConfig) *Reader {
	r.coercer = NewTypeCoercer(config)
	return r
}

// Read is NewReader(path).Read()
func Read(path string) (*table.Table, error) {
	return NewReader(path).Read()
}

// Read loads the file with one typed column per header
func (r *Reader) Read() (*table.Table, error) {
	log := internal.DefaultLogger.With("tabular")
	log.Debug("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.fileType {
	case FileTypeCSV:
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	log.Debug("%s read in %.2fms (%d rows)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	t, err := r.processRows(rows)
	if err != nil {
		return nil, err
	}
	log.Info("loaded %s (%d columns, %d rows)", filepath.Base(r.filePath), t.NumCols(), t.NumRows())
	return t, nil
}

func (r *Reader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError("failed to read CSV file", err)
	}
	return rows, nil
}

func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = DefaultSheet
		if sheets := f.GetSheetList(); len(sheets) > 0 {
			sheet = sheets[0]
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	return rows, nil
}

// processRows turns a header row plus data rows into typed columns. Short
// rows are padded with missing cells; cells past the header are dropped.
func (r *Reader) processRows(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s has no header row", r.filePath))
	}

	headers, err := normalizeHeaders(rows[0])
	if err != nil {
		return nil, err
	}

	data := rows[1:]
	raw := make([][]string, len(headers))
	for j := range raw {
		raw[j] = make([]string, len(data))
	}
	for i, row := range data {
		for j := range headers {
			if j < len(row) {
				raw[j][i] = row[j]
			}
		}
	}

	t := table.New(len(data))
	for j, name := range headers {
		if err := t.SetColumn(r.coercer.CoerceColumn(name, raw[j])); err != nil {
			return nil, errors.Wrap(err, "build table")
		}
	}
	return t, nil
}

// normalizeHeaders trims names and names blank headers by position
func normalizeHeaders(row []string) ([]string, error) {
	headers := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i, h := range row {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i)
		}
		if seen[h] {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate column header %q", h))
		}
		seen[h] = true
		headers[i] = h
	}
	return headers, nil
}

func fileTypeOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FileTypeCSV
	}
	return FileTypeXLSX
}
