package friction

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies metric-engine failures.
type ErrorType string

const (
	// ErrorTypeInvalidStockRatio marks a municipality whose locked stock
	// is not strictly below its dwelling total.
	ErrorTypeInvalidStockRatio ErrorType = "invalid_stock_ratio"
	// ErrorTypeSchemeInvalid marks a classification scheme whose buckets
	// do not partition the share domain.
	ErrorTypeSchemeInvalid ErrorType = "scheme_definition_invalid"
	// ErrorTypeBadParams marks simulation parameters outside their domain.
	ErrorTypeBadParams ErrorType = "bad_simulation_params"
)

// MetricError is a metric-engine failure naming the offending
// municipality or scheme.
type MetricError struct {
	Type     ErrorType
	Subjects []string
	Message  string
}

func (e *MetricError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if len(e.Subjects) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Subjects, ", "))
	}
	return b.String()
}

// NewInvalidStockRatioError reports a municipality with locked stock at
// or above its dwelling total.
func NewInvalidStockRatioError(municipality string, locked, total int) *MetricError {
	return &MetricError{
		Type:     ErrorTypeInvalidStockRatio,
		Subjects: []string{municipality},
		Message:  fmt.Sprintf("locked stock %d not below dwelling total %d", locked, total),
	}
}

// NewSchemeInvalidError reports a scheme whose buckets fail validation.
func NewSchemeInvalidError(schemeID, message string) *MetricError {
	return &MetricError{
		Type:     ErrorTypeSchemeInvalid,
		Subjects: []string{schemeID},
		Message:  message,
	}
}

// IsType reports whether err is a MetricError of the given type.
func IsType(err error, t ErrorType) bool {
	var me *MetricError
	if !errors.As(err, &me) {
		return false
	}
	return me.Type == t
}
