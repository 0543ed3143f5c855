package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID       ID
	TransformID ID
)

func (id RunID) String() string       { return ID(id).String() }
func (id TransformID) String() string { return ID(id).String() }

// NewRunID identifies one pipeline invocation, e.g. a persisted time-series summary
func NewRunID() RunID { return RunID(NewID()) }

// NewTransformID identifies a fitted model-matrix transform
func NewTransformID() TransformID { return TransformID(NewID()) }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseTransformID parses a string into TransformID. Transform IDs are UUIDs.
func ParseTransformID(s string) (TransformID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("transform ID cannot be empty")
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid transform ID %q: %w", s, err)
	}
	return TransformID(id.String()), nil
}
