// Package profiling reports the shape of a booking table: missing values,
// target class balance and numeric column summaries.
package profiling

import (
	"sort"

	"bookingeda/domain/table"
	"bookingeda/internal"
	"bookingeda/internal/utils"
)

// DefaultTopN is how many columns the missing-value report keeps
const DefaultTopN = 15

// MissingCount is one row of the missing-value report
type MissingCount struct {
	Column   string  `json:"column"`
	Missing  int     `json:"missing"`
	Fraction float64 `json:"fraction"`
}

// ClassCount is the size of one target class
type ClassCount struct {
	Class string  `json:"class"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Profile is the full report for one table
type Profile struct {
	Rows    int              `json:"rows"`
	Columns int              `json:"columns"`
	Missing []MissingCount   `json:"missing"`
	Balance []ClassCount     `json:"balance,omitempty"`
	Numeric []NumericSummary `json:"numeric"`
}

// DataProfiler builds profiles with a fixed report size
type DataProfiler struct {
	topN int
}

// NewDataProfiler creates a profiler; topN <= 0 uses DefaultTopN
func NewDataProfiler(topN int) *DataProfiler {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &DataProfiler{topN: topN}
}

// ProfileTable reports on t. The class balance is filled only when the
// target column is present.
func (dp *DataProfiler) ProfileTable(t *table.Table, target string) *Profile {
	p := &Profile{
		Rows:    t.NumRows(),
		Columns: t.NumCols(),
		Missing: MissingReport(t, dp.topN),
		Numeric: DescribeTable(t),
	}
	if t.Has(target) {
		p.Balance = ClassBalance(t, target)
	}
	internal.DefaultLogger.With("profiling").Debug("profiled %d columns, %d numeric", p.Columns, len(p.Numeric))
	return p
}

// MissingReport returns the topN columns by missing count, descending.
// Equal counts keep column order.
func MissingReport(t *table.Table, topN int) []MissingCount {
	out := make([]MissingCount, 0, t.NumCols())
	for _, name := range t.ColumnNames() {
		col, _ := t.Column(name)
		n := col.MissingCount()
		out = append(out, MissingCount{
			Column:   name,
			Missing:  n,
			Fraction: utils.SafeDiv(float64(n), float64(t.NumRows()), 0),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Missing > out[j].Missing
	})
	if topN >= 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// ClassBalance counts the non-missing values of a target column, ordered
// by class label. An absent column yields nil.
func ClassBalance(t *table.Table, target string) []ClassCount {
	col, ok := t.Column(target)
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	total := 0
	for _, v := range col.Values {
		if v.IsMissing {
			continue
		}
		counts[v.Key()]++
		total++
	}

	out := make([]ClassCount, 0, len(counts))
	for class, n := range counts {
		out = append(out, ClassCount{Class: class, Count: n, Share: utils.SafeDiv(float64(n), float64(total), 0)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

// DescribeTable summarises every numeric column in table order
func DescribeTable(t *table.Table) []NumericSummary {
	var out []NumericSummary
	for _, name := range t.ColumnNames() {
		col, _ := t.Column(name)
		if col.Type == table.ValueTypeNumeric {
			out = append(out, Describe(col))
		}
	}
	return out
}
