package tabular

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"bookingeda/domain/table"
	"bookingeda/internal"
	"bookingeda/internal/errors"
	"bookingeda/internal/modelmatrix"
)

// ColTarget heads the target column appended by WriteMatrix
const ColTarget = "target"

// Write saves t with a header row, creating parent directories. The format
// follows the extension as in NewReader. Missing cells are written empty.
func Write(t *table.Table, path string) error {
	names := t.ColumnNames()
	rows := make([][]interface{}, 0, t.NumRows()+1)
	rows = append(rows, headerCells(names))
	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, len(names))
		for j, name := range names {
			row[j] = cellOf(t.Get(i, name))
		}
		rows = append(rows, row)
	}
	return writeRows(rows, path)
}

// WriteMatrix saves the encoded features with the target code as the last
// column. NaN cells are written empty.
func WriteMatrix(m *modelmatrix.Matrix, path string) error {
	if m == nil || m.X == nil {
		return errors.InvalidInput("no matrix to write")
	}
	n, _ := m.X.Dims()
	if len(m.Target) != n {
		return errors.InvalidInput(fmt.Sprintf("matrix has %d rows but %d targets", n, len(m.Target)))
	}
	return writeDense(m.Columns, m.X, m.Target, path)
}

// WriteFeatures saves an encoded feature matrix without a target column
func WriteFeatures(names []string, x mat.Matrix, path string) error {
	if _, cols := x.Dims(); cols != len(names) {
		return errors.InvalidInput(fmt.Sprintf("matrix has %d columns but %d names", cols, len(names)))
	}
	return writeDense(names, x, nil, path)
}

// writeDense appends the target column when target is non-nil
func writeDense(names []string, x mat.Matrix, target []int, path string) error {
	n, cols := x.Dims()
	header := append([]string(nil), names...)
	if target != nil {
		header = append(header, ColTarget)
	}

	rows := make([][]interface{}, 0, n+1)
	rows = append(rows, headerCells(header))
	for i := 0; i < n; i++ {
		row := make([]interface{}, len(header))
		for j := 0; j < cols; j++ {
			if v := x.At(i, j); !math.IsNaN(v) {
				row[j] = v
			}
		}
		if target != nil {
			row[cols] = float64(target[i])
		}
		rows = append(rows, row)
	}
	return writeRows(rows, path)
}

func headerCells(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// cellOf keeps numbers as float64 so workbooks store them as numeric cells
func cellOf(v table.Value) interface{} {
	switch {
	case v.IsMissing:
		return nil
	case v.IsNumeric():
		return v.AsFloat64()
	default:
		return v.Key()
	}
}

func writeRows(rows [][]interface{}, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.IOError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}

	var err error
	switch fileTypeOf(path) {
	case FileTypeCSV:
		err = writeCSV(rows, path)
	default:
		err = writeExcel(rows, path)
	}
	if err != nil {
		return err
	}
	internal.DefaultLogger.With("tabular").Info("wrote %s (%d rows)", path, len(rows)-1)
	return nil
}

func writeCSV(rows [][]interface{}, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.IOError("failed to create CSV file", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	record := make([]string, 0)
	for _, row := range rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, csvText(cell))
		}
		if err := w.Write(record); err != nil {
			return errors.IOError("failed to write CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.IOError("failed to flush CSV file", err)
	}
	return nil
}

func csvText(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	}
	return fmt.Sprint(cell)
}

func writeExcel(rows [][]interface{}, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "excel cell name")
		}
		r := row
		if err := f.SetSheetRow(DefaultSheet, cell, &r); err != nil {
			return errors.IOError(fmt.Sprintf("failed to write row %d", i+1), err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.IOError("failed to save Excel file", err)
	}
	return nil
}
