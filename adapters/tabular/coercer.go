package tabular

import (
	"math"
	"strconv"
	"strings"
	"time"

	"bookingeda/domain/table"
)

// DefaultMissingTokens are the cell texts read as missing
var DefaultMissingTokens = []string{"", "NA", "NaN", "NULL", "null", "None"}

// DefaultDateLayouts are tried in order when inferring timestamp columns
var DefaultDateLayouts = []string{
	table.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// CoercionConfig controls how raw cell text becomes typed values
type CoercionConfig struct {
	MissingTokens []string `json:"missing_tokens"`
	DateLayouts   []string `json:"date_layouts"`
	TrimSpace     bool     `json:"trim_space"`
}

// DefaultCoercionConfig returns the loader defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingTokens: DefaultMissingTokens,
		DateLayouts:   DefaultDateLayouts,
		TrimSpace:     true,
	}
}

// TypeCoercer decides a column type from its raw text and converts cells.
// A column is numeric when every non-missing cell parses as a number,
// timestamp when every one parses as a date, and string otherwise.
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]bool
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]bool, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[tok] = true
	}
	return &TypeCoercer{config: config, missing: missing}
}

// TypeAnalysis counts how many non-missing cells parse as each type
type TypeAnalysis struct {
	TotalCount     int             `json:"total_count"`
	ValidCount     int             `json:"valid_count"`
	NumericCount   int             `json:"numeric_count"`
	TimestampCount int             `json:"timestamp_count"`
	Recommended    table.ValueType `json:"recommended_type"`
}

// Analyze inspects every cell of a column
func (c *TypeCoercer) Analyze(raw []string) TypeAnalysis {
	a := TypeAnalysis{TotalCount: len(raw)}
	for _, s := range raw {
		s = c.normalize(s)
		if c.isMissing(s) {
			continue
		}
		a.ValidCount++
		if _, ok := c.parseNumeric(s); ok {
			a.NumericCount++
		}
		if _, ok := c.parseTimestamp(s); ok {
			a.TimestampCount++
		}
	}

	switch {
	case a.ValidCount == 0:
		a.Recommended = table.ValueTypeString
	case a.NumericCount == a.ValidCount:
		a.Recommended = table.ValueTypeNumeric
	case a.TimestampCount == a.ValidCount:
		a.Recommended = table.ValueTypeTimestamp
	default:
		a.Recommended = table.ValueTypeString
	}
	return a
}

// CoerceColumn infers the column type and converts every cell
func (c *TypeCoercer) CoerceColumn(name string, raw []string) *table.Column {
	typ := c.Analyze(raw).Recommended
	values := make([]table.Value, len(raw))
	for i, s := range raw {
		values[i] = c.CoerceValue(s, typ)
	}
	return table.NewColumn(name, typ, values)
}

// CoerceValue converts one cell to the given column type. Callers must have
// checked that the cell parses, as CoerceColumn does.
func (c *TypeCoercer) CoerceValue(raw string, typ table.ValueType) table.Value {
	s := c.normalize(raw)
	if c.isMissing(s) {
		return table.NewMissingValue()
	}
	switch typ {
	case table.ValueTypeNumeric:
		if f, ok := c.parseNumeric(s); ok {
			return table.NewNumericValue(f)
		}
	case table.ValueTypeTimestamp:
		if ts, ok := c.parseTimestamp(s); ok {
			return table.NewTimestampValue(ts)
		}
	}
	return table.NewStringValue(s)
}

func (c *TypeCoercer) normalize(s string) string {
	if c.config.TrimSpace {
		return strings.TrimSpace(s)
	}
	return s
}

func (c *TypeCoercer) isMissing(s string) bool {
	return s == "" || c.missing[s]
}

// parseNumeric rejects Inf and NaN spellings so they stay text or missing
func (c *TypeCoercer) parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (c *TypeCoercer) parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range c.config.DateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
