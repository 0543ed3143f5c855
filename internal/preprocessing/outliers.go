package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal/errors"
)

// Bounds is the clipping interval computed for one column
type Bounds struct {
	Column string
	Q1     float64
	Q3     float64
	Lower  float64
	Upper  float64
}

// IQRBounds computes [Q1 - k*IQR, Q3 + k*IQR] over the non-missing values.
// Quartiles are empirical order statistics (values present in the data), so
// clipping to these bounds leaves the quartiles, and therefore the bounds,
// unchanged on a second pass. ok is false when there are no values.
func IQRBounds(values []float64, k float64) (lower, upper float64, q1, q3 float64, ok bool) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0, 0, 0, 0, false
	}
	sort.Float64s(sorted)

	q1 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr, q1, q3, true
}

// ClipOutliersIQR clips each requested numeric column to its IQR bounds.
// Absent columns are skipped and missing cells stay missing. A requested
// column that is not numeric, or a negative k, is an invalid-input error.
func ClipOutliersIQR(t *table.Table, cols []string, k float64) (*table.Table, []Bounds, error) {
	if k < 0 || math.IsNaN(k) {
		return nil, nil, errors.InvalidInputf(core.ErrIncompatibleType, "IQR multiplier must be non-negative, got %v", k)
	}

	out := t.Clone()
	var bounds []Bounds
	for _, name := range cols {
		col, ok := out.Column(name)
		if !ok {
			logger().Debug("clip: column %s absent, skipped", name)
			continue
		}
		if col.Type != table.ValueTypeNumeric {
			return nil, nil, errors.InvalidInputf(core.ErrIncompatibleType,
				"cannot clip %s column %q", col.Type, name)
		}

		lo, hi, q1, q3, ok := IQRBounds(col.NonMissingFloats(), k)
		if !ok {
			continue
		}
		bounds = append(bounds, Bounds{Column: name, Q1: q1, Q3: q3, Lower: lo, Upper: hi})

		values := make([]table.Value, len(col.Values))
		clipped := 0
		for i, v := range col.Values {
			if !v.IsNumeric() {
				values[i] = v
				continue
			}
			x := v.AsFloat64()
			c := math.Min(math.Max(x, lo), hi)
			if c != x {
				clipped++
			}
			values[i] = table.NewNumericValue(c)
		}
		if err := out.SetColumn(table.NewColumn(name, table.ValueTypeNumeric, values)); err != nil {
			return nil, nil, errors.Wrapf(err, "clip %s", name)
		}
		logger().Debug("clip: %s to [%g, %g], %d values changed", name, lo, hi, clipped)
	}
	return out, bounds, nil
}
