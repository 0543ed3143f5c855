package table

import (
	"fmt"
	"math"
	"sort"
)

// Column is a named, typed vector of values. The type tag is fixed when the
// column is created; every non-missing value carries the same type.
type Column struct {
	Name   string
	Type   ValueType
	Values []Value
}

// NewColumn creates a column with the given type tag
func NewColumn(name string, typ ValueType, values []Value) *Column {
	return &Column{Name: name, Type: typ, Values: values}
}

// NumericColumn builds a numeric column. NaN entries become missing.
func NumericColumn(name string, vals ...float64) *Column {
	values := make([]Value, len(vals))
	for i, v := range vals {
		values[i] = NewNumericValue(v)
	}
	return NewColumn(name, ValueTypeNumeric, values)
}

// StringColumn builds a string column. Empty entries become missing.
func StringColumn(name string, vals ...string) *Column {
	values := make([]Value, len(vals))
	for i, v := range vals {
		values[i] = NewStringValue(v)
	}
	return NewColumn(name, ValueTypeString, values)
}

// Len returns the number of values in the column
func (c *Column) Len() int {
	return len(c.Values)
}

// Floats returns the column as float64 with NaN for missing or non-numeric cells
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.AsFloat64()
	}
	return out
}

// NonMissingFloats returns the numeric values, skipping missing cells
func (c *Column) NonMissingFloats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.IsNumeric() {
			out = append(out, v.AsFloat64())
		}
	}
	return out
}

// MissingCount returns how many cells are missing
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing {
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	values := make([]Value, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: values}
}

func (c *Column) validate() error {
	for i, v := range c.Values {
		if !v.IsMissing && v.Type != c.Type {
			return fmt.Errorf("column %q row %d: %s value in %s column", c.Name, i, v.Type, c.Type)
		}
	}
	return nil
}

// Table is an ordered collection of rows stored column-major. Tables are
// treated as values: every stage returns a new Table and leaves its input
// untouched.
type Table struct {
	columns []*Column
	index   map[string]int
	nrows   int
}

// New creates an empty table with a fixed row count
func New(nrows int) *Table {
	return &Table{index: make(map[string]int), nrows: nrows}
}

// FromColumns builds a table from columns of equal length
func FromColumns(cols ...*Column) (*Table, error) {
	nrows := 0
	if len(cols) > 0 {
		nrows = cols[0].Len()
	}
	t := New(nrows)
	for _, col := range cols {
		if err := t.SetColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustFromColumns is FromColumns for fixtures; it panics on error
func MustFromColumns(cols ...*Column) *Table {
	t, err := FromColumns(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return t.nrows
}

// NumCols returns the number of columns
func (t *Table) NumCols() int {
	return len(t.columns)
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the named column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// HasAll reports whether every named column exists
func (t *Table) HasAll(names ...string) bool {
	for _, name := range names {
		if !t.Has(name) {
			return false
		}
	}
	return true
}

// Present filters names down to the columns that exist, keeping order
func (t *Table) Present(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if t.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Column returns the named column. The returned column must not be modified.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnType returns the type tag of the named column
func (t *Table) ColumnType(name string) (ValueType, bool) {
	col, ok := t.Column(name)
	if !ok {
		return "", false
	}
	return col.Type, true
}

// Get returns a single cell; absent columns yield a missing value
func (t *Table) Get(row int, name string) Value {
	col, ok := t.Column(name)
	if !ok || row < 0 || row >= t.nrows {
		return NewMissingValue()
	}
	return col.Values[row]
}

// Row returns a copy of one row keyed by column name
func (t *Table) Row(i int) map[string]Value {
	row := make(map[string]Value, len(t.columns))
	for _, c := range t.columns {
		row[c.Name] = c.Values[i]
	}
	return row
}

// SetColumn appends a column or replaces an existing one with the same name
func (t *Table) SetColumn(col *Column) error {
	if col.Len() != t.nrows {
		return fmt.Errorf("column %q has %d values, table has %d rows", col.Name, col.Len(), t.nrows)
	}
	if err := col.validate(); err != nil {
		return err
	}
	if i, ok := t.index[col.Name]; ok {
		t.columns[i] = col
		return nil
	}
	t.index[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// Clone returns an independent copy of the table
func (t *Table) Clone() *Table {
	out := New(t.nrows)
	for _, c := range t.columns {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c.clone())
	}
	return out
}

// Drop returns a copy without the named columns. Absent names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := New(t.nrows)
	for _, c := range t.columns {
		if skip[c.Name] {
			continue
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c.clone())
	}
	return out
}

// Filter returns the rows for which keep is true, in their original order
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.nrows)
	for i := 0; i < t.nrows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.take(rows)
}

// SortedBy returns a copy ordered by the named column ascending. Missing
// cells sort last; ties keep their input order.
func (t *Table) SortedBy(name string) (*Table, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	rows := make([]int, t.nrows)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return less(col.Values[rows[a]], col.Values[rows[b]])
	})
	return t.take(rows), nil
}

// Slice returns rows [from, to)
func (t *Table) Slice(from, to int) *Table {
	rows := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, i)
	}
	return t.take(rows)
}

func (t *Table) take(rows []int) *Table {
	out := New(len(rows))
	for _, c := range t.columns {
		values := make([]Value, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, &Column{Name: c.Name, Type: c.Type, Values: values})
	}
	return out
}

func less(a, b Value) bool {
	if a.IsMissing || b.IsMissing {
		return !a.IsMissing && b.IsMissing
	}
	switch a.Type {
	case ValueTypeNumeric:
		x, y := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(x) {
			return false
		}
		return x < y
	case ValueTypeTimestamp:
		x, _ := a.AsTime()
		y, _ := b.AsTime()
		return x.Before(y)
	default:
		return a.Key() < b.Key()
	}
}
