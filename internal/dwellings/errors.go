package dwellings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies table-builder failures.
type ErrorType string

const (
	// ErrorTypeSchemaMismatch marks a source header outside the known
	// vocabulary, or a required column missing from a source file.
	ErrorTypeSchemaMismatch ErrorType = "schema_mismatch"
	// ErrorTypeDuplicateKey marks the same municipality appearing twice
	// with conflicting counts.
	ErrorTypeDuplicateKey ErrorType = "duplicate_key_conflict"
	// ErrorTypeMissingInput marks a required input file that is absent.
	ErrorTypeMissingInput ErrorType = "missing_input"
	// ErrorTypeBadRecord marks a row violating the record invariants.
	ErrorTypeBadRecord ErrorType = "bad_record"
)

// BuildError is a table-builder failure carrying the offending subjects
// (header names, municipality names, file paths) so the operator sees
// exactly what tripped the run, never a generic failure.
type BuildError struct {
	Type     ErrorType
	Source   string
	Subjects []string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
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

// Unwrap returns the underlying error, if any.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// NewSchemaMismatchError reports headers that the vocabulary does not know.
func NewSchemaMismatchError(source string, headers []string) *BuildError {
	return &BuildError{
		Type:     ErrorTypeSchemaMismatch,
		Source:   source,
		Subjects: headers,
		Message:  "headers not in the known vocabulary",
	}
}

// NewMissingColumnError reports required canonical columns absent from a source.
func NewMissingColumnError(source string, columns []string) *BuildError {
	return &BuildError{
		Type:     ErrorTypeSchemaMismatch,
		Source:   source,
		Subjects: columns,
		Message:  "required columns missing",
	}
}

// NewDuplicateKeyError reports a municipality present twice with
// conflicting counts.
func NewDuplicateKeyError(source, municipality string) *BuildError {
	return &BuildError{
		Type:     ErrorTypeDuplicateKey,
		Source:   source,
		Subjects: []string{municipality},
		Message:  "municipality appears twice with conflicting counts",
	}
}

// NewMissingInputError reports an absent required input file.
func NewMissingInputError(path string, cause error) *BuildError {
	return &BuildError{
		Type:     ErrorTypeMissingInput,
		Subjects: []string{path},
		Message:  "required input file missing",
		Cause:    cause,
	}
}

// IsType reports whether err is a BuildError of the given type.
func IsType(err error, t ErrorType) bool {
	var be *BuildError
	if !errors.As(err, &be) {
		return false
	}
	return be.Type == t
}
