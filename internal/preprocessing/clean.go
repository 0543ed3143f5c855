package preprocessing

import (
	"strconv"

	"bookingeda/domain/table"
)

// Clean fills missing values and then drops logically invalid rows
func Clean(t *table.Table, cfg Config) *table.Table {
	return RemoveInvalidRows(FillMissing(t, cfg))
}

// FillMissing replaces missing values using fixed per-column rules. Rules for
// absent columns are skipped. Row count and column order are unchanged.
func FillMissing(t *table.Table, cfg Config) *table.Table {
	log := logger()
	out := t.Clone()

	if n := fillNumber(out, ColChildren, 0); n > 0 {
		log.Debug("filled %d missing %s with 0", n, ColChildren)
	}
	if n := fillText(out, ColCountry, cfg.FillCountry); n > 0 {
		log.Debug("filled %d missing %s with %q", n, ColCountry, cfg.FillCountry)
	}

	// identifier columns before the categorical sweep so a string-typed
	// agent/company gets the sentinel, not the categorical literal
	for _, name := range identifierColumns {
		if n := fillNumber(out, name, float64(cfg.FillAgentCompany)); n > 0 {
			log.Debug("filled %d missing %s with %d", n, name, cfg.FillAgentCompany)
		}
	}

	for _, name := range out.ColumnNames() {
		if typ, _ := out.ColumnType(name); typ != table.ValueTypeString {
			continue
		}
		if n := fillText(out, name, cfg.FillCategorical); n > 0 {
			log.Debug("filled %d missing %s with %q", n, name, cfg.FillCategorical)
		}
	}

	return out
}

// RemoveInvalidRows drops rows with no guests and rows with a negative rate.
// Missing guest counts contribute zero. A missing rate is not negative, so
// rows with a missing adr are kept; a pandas filter of adr >= 0 would drop
// them because NaN compares false.
func RemoveInvalidRows(t *table.Table) *table.Table {
	guests := t.Present(guestColumns...)
	adr, hasADR := t.Column(ColADR)

	out := t.Filter(func(row int) bool {
		if len(guests) > 0 {
			total := 0.0
			for _, name := range guests {
				if v := t.Get(row, name); v.IsNumeric() {
					total += v.AsFloat64()
				}
			}
			if total <= 0 {
				return false
			}
		}
		if hasADR {
			if v := adr.Values[row]; v.IsNumeric() && v.AsFloat64() < 0 {
				return false
			}
		}
		return true
	})

	if dropped := t.NumRows() - out.NumRows(); dropped > 0 {
		logger().Debug("removed %d invalid rows of %d", dropped, t.NumRows())
	}
	return out
}

// fillNumber fills missing cells of a numeric column with n. A string column
// receives n as text. Returns the number of cells filled.
func fillNumber(t *table.Table, name string, n float64) int {
	col, ok := t.Column(name)
	if !ok {
		return 0
	}
	switch col.Type {
	case table.ValueTypeNumeric:
		return replaceMissing(t, col, col.Type, table.NewNumericValue(n))
	case table.ValueTypeString:
		return replaceMissing(t, col, col.Type, table.NewStringValue(strconv.FormatFloat(n, 'f', -1, 64)))
	}
	return 0
}

// fillText fills missing cells with s. A numeric column keeps its type when s
// is a number; otherwise it is re-tagged as a string column.
func fillText(t *table.Table, name, s string) int {
	col, ok := t.Column(name)
	if !ok || s == "" {
		return 0
	}
	switch col.Type {
	case table.ValueTypeString:
		return replaceMissing(t, col, col.Type, table.NewStringValue(s))
	case table.ValueTypeNumeric:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return replaceMissing(t, col, col.Type, table.NewNumericValue(n))
		}
		if col.MissingCount() == 0 {
			return 0
		}
		return replaceMissing(t, asStrings(col), table.ValueTypeString, table.NewStringValue(s))
	}
	return 0
}

func replaceMissing(t *table.Table, col *table.Column, typ table.ValueType, fill table.Value) int {
	values := make([]table.Value, len(col.Values))
	filled := 0
	for i, v := range col.Values {
		if v.IsMissing {
			values[i] = fill
			filled++
			continue
		}
		values[i] = v
	}
	if filled == 0 && typ == col.Type {
		return 0
	}
	// lengths and types match by construction
	_ = t.SetColumn(table.NewColumn(col.Name, typ, values))
	return filled
}

func asStrings(col *table.Column) *table.Column {
	values := make([]table.Value, len(col.Values))
	for i, v := range col.Values {
		if v.IsMissing {
			values[i] = v
			continue
		}
		values[i] = table.NewStringValue(v.Key())
	}
	return table.NewColumn(col.Name, table.ValueTypeString, values)
}
