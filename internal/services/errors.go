package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingInput            = errors.New("missing input")
	ErrExternalService         = errors.New("external service error")
	ErrValidation              = errors.New("validation error")
	ErrConstraintUnsatisfiable = errors.New("constraint unsatisfiable")
	ErrConfiguration           = errors.New("configuration error")
	ErrCanceled                = errors.New("canceled")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// SourceError attaches the offending source identifier to a failure.
type SourceError struct {
	SourceID string
	Err      error
}

func (e *SourceError) Error() string {
	if e.SourceID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("source %s: %v", e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// WithSourceID annotates err with a source id. A nil err stays nil.
func WithSourceID(err error, sourceID string) error {
	if err == nil {
		return nil
	}
	return &SourceError{SourceID: strings.TrimSpace(sourceID), Err: err}
}

// SourceIDOf returns the source id attached by WithSourceID, if any.
func SourceIDOf(err error) (string, bool) {
	var se *SourceError
	if errors.As(err, &se) && se.SourceID != "" {
		return se.SourceID, true
	}
	return "", false
}

// IsFatal reports whether err must abort the run. Missing input and
// unsatisfiable constraints are left to the caller's policy.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrConstraintUnsatisfiable):
		return false
	default:
		return true
	}
}

// Kind returns a short label for the error class, used in logs and summaries.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConstraintUnsatisfiable):
		return "constraint_unsatisfiable"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
