package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-123", RunID("run-123"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseTransformID tests transform ID parsing
func TestParseTransformID(t *testing.T) {
	id := NewTransformID()
	parsed, err := ParseTransformID(id.String())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}
	if _, err := ParseTransformID(""); err == nil {
		t.Error("Expected error for empty transform ID")
	}
	for _, input := range []string{"outputs/transfrom.json", "transform-1", "0192a0d4-0000"} {
		if _, err := ParseTransformID(input); err == nil {
			t.Errorf("Expected error for non-UUID transform ID '%s'", input)
		}
	}
}

// TestMissingColumnSentinels tests the sentinel hierarchy
func TestMissingColumnSentinels(t *testing.T) {
	for _, err := range []error{ErrTargetMissing, ErrDateKeyMissing, ErrOutcomeMissing, ErrFeatureMissing} {
		if !IsMissingColumnError(err) {
			t.Errorf("Expected %v to be a missing-column error", err)
		}
	}
	if IsMissingColumnError(ErrNonBinaryOutcome) {
		t.Error("ErrNonBinaryOutcome is not a missing-column error")
	}
	if !IsNotFoundError(ErrTransformNotFound) {
		t.Error("ErrTransformNotFound should be a not-found error")
	}
}
