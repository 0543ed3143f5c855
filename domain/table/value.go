package table

import (
	"math"
	"strconv"
	"time"
)

// DateLayout is the canonical rendering of timestamp cells
const DateLayout = "2006-01-02"

// ValueType defines the storage type for values and columns
type ValueType string

const (
	ValueTypeString    ValueType = "string"
	ValueTypeNumeric   ValueType = "numeric"
	ValueTypeTimestamp ValueType = "timestamp"
	ValueTypeMissing   ValueType = "missing"
)

// Value represents a typed cell value or the missing marker
type Value struct {
	Type         ValueType  `json:"type"`
	StringVal    *string    `json:"string_val,omitempty"`
	NumericVal   *float64   `json:"numeric_val,omitempty"`
	TimestampVal *time.Time `json:"timestamp_val,omitempty"`
	IsMissing    bool       `json:"is_missing"`
}

// NewStringValue creates a string value. An empty string is missing.
func NewStringValue(s string) Value {
	if s == "" {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeString, StringVal: &s}
}

// NewNumericValue creates a numeric value. NaN is stored as missing.
func NewNumericValue(n float64) Value {
	if math.IsNaN(n) {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeNumeric, NumericVal: &n}
}

// NewTimestampValue creates a timestamp value
func NewTimestampValue(t time.Time) Value {
	return Value{Type: ValueTypeTimestamp, TimestampVal: &t}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing, IsMissing: true}
}

// String returns a human-readable representation of the value
func (v Value) String() string {
	if v.IsMissing {
		return "<missing>"
	}
	return v.Key()
}

// Key returns the canonical text of the value, used for category vocabularies
// and file output. Missing values render as the empty string.
func (v Value) Key() string {
	switch v.Type {
	case ValueTypeString:
		if v.StringVal != nil {
			return *v.StringVal
		}
	case ValueTypeNumeric:
		if v.NumericVal != nil {
			return strconv.FormatFloat(*v.NumericVal, 'f', -1, 64)
		}
	case ValueTypeTimestamp:
		if v.TimestampVal != nil {
			return v.TimestampVal.Format(DateLayout)
		}
	}
	return ""
}

// IsNumeric returns true if the value represents a valid number
func (v Value) IsNumeric() bool {
	return v.Type == ValueTypeNumeric && v.NumericVal != nil
}

// IsString returns true if the value represents a valid string
func (v Value) IsString() bool {
	return v.Type == ValueTypeString && v.StringVal != nil
}

// IsTimestamp returns true if the value represents a valid timestamp
func (v Value) IsTimestamp() bool {
	return v.Type == ValueTypeTimestamp && v.TimestampVal != nil
}

// AsFloat64 returns the numeric value as float64, or NaN if not numeric
func (v Value) AsFloat64() float64 {
	if v.NumericVal != nil {
		return *v.NumericVal
	}
	return math.NaN()
}

// AsTime returns the timestamp and whether the value holds one
func (v Value) AsTime() (time.Time, bool) {
	if v.TimestampVal != nil {
		return *v.TimestampVal, true
	}
	return time.Time{}, false
}

// Equal reports whether two values hold the same type and content
func (v Value) Equal(o Value) bool {
	if v.IsMissing || o.IsMissing {
		return v.IsMissing == o.IsMissing
	}
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case ValueTypeNumeric:
		return v.AsFloat64() == o.AsFloat64()
	case ValueTypeTimestamp:
		a, _ := v.AsTime()
		b, _ := o.AsTime()
		return a.Equal(b)
	default:
		return v.Key() == o.Key()
	}
}

