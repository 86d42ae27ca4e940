package geo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies reconciler failures.
type ErrorType string

const (
	// ErrorTypeOverrideAmbiguity marks an override table where the same
	// statistical name is claimed by more than one boundary feature.
	ErrorTypeOverrideAmbiguity ErrorType = "override_ambiguity"
	// ErrorTypeInvalidBoundaries marks a boundary file that cannot be
	// read or lacks the configured name property.
	ErrorTypeInvalidBoundaries ErrorType = "invalid_boundaries"
	// ErrorTypeMissingInput marks an absent boundary or override file.
	ErrorTypeMissingInput ErrorType = "missing_input"
)

// ReconcileError is a reconciler failure naming the offending boundary
// features or municipality names.
type ReconcileError struct {
	Type     ErrorType
	Source   string
	Subjects []string
	Message  string
	Cause    error
}

func (e *ReconcileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Type)
	if e.Source != "" {
		fmt.Fprintf(&b, " %s:", e.Source)
	}
	fmt.Fprintf(&b, " %s", e.Message)
	if len(e.Subjects) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Subjects, ", "))
	}
	return b.String()
}

func (e *ReconcileError) Unwrap() error {
	return e.Cause
}

// NewOverrideAmbiguityError reports boundary features contending for the
// same statistical name.
func NewOverrideAmbiguityError(source, rawName string, boundaries []string) *ReconcileError {
	return &ReconcileError{
		Type:     ErrorTypeOverrideAmbiguity,
		Source:   source,
		Subjects: boundaries,
		Message:  fmt.Sprintf("statistical name %q claimed by multiple boundaries", rawName),
	}
}

// NewInvalidBoundariesError reports an unreadable or malformed boundary file.
func NewInvalidBoundariesError(source, message string, cause error) *ReconcileError {
	return &ReconcileError{
		Type:    ErrorTypeInvalidBoundaries,
		Source:  source,
		Message: message,
		Cause:   cause,
	}
}

// NewMissingInputError reports an absent required input file.
func NewMissingInputError(path string, cause error) *ReconcileError {
	return &ReconcileError{
		Type:     ErrorTypeMissingInput,
		Subjects: []string{path},
		Message:  "required input file missing",
		Cause:    cause,
	}
}

// IsType reports whether err is a ReconcileError of the given type.
func IsType(err error, t ErrorType) bool {
	var re *ReconcileError
	if !errors.As(err, &re) {
		return false
	}
	return re.Type == t
}
