package optimization

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/PromptOps/PromptForge/pkg/domain/guardrail"
)

// InputError rejects a submission before any job is created: empty or
// over-length prompt, or out-of-range numeric parameters.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInputError builds an InputError for one offending field.
func NewInputError(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

// IsInputError reports whether err is a submission-time validation error.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// SafetyRejection marks a job whose original prompt failed guardrail
// validation. The job exists but fails immediately with the violations
// attached; it is a structured outcome, not a panic path.
type SafetyRejection struct {
	Violations []guardrail.Violation
}

func (e *SafetyRejection) Error() string {
	return fmt.Sprintf("prompt rejected by guardrails: %d violation(s)", len(e.Violations))
}

// NewSafetyRejection wraps the violation list that blocked the prompt.
func NewSafetyRejection(violations []guardrail.Violation) error {
	return &SafetyRejection{Violations: violations}
}

// AsSafetyRejection unwraps err into a SafetyRejection if it is one.
func AsSafetyRejection(err error) (*SafetyRejection, bool) {
	var sr *SafetyRejection
	if errors.As(err, &sr) {
		return sr, true
	}
	return nil, false
}

// InternalFault is an unexpected failure inside a scorer or mutation
// operator that recurred beyond the retry budget.
type InternalFault struct {
	Msg string
	Err error
}

func (e *InternalFault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal fault: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("internal fault: %s", e.Msg)
}

func (e *InternalFault) Unwrap() error { return e.Err }

// NewInternalFault wraps an unexpected failure.
func NewInternalFault(msg string, err error) error {
	return &InternalFault{Msg: msg, Err: err}
}

// ErrJobNotFound is returned by repositories for unknown job ids.
type notFoundError struct {
	ID uuid.UUID
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("optimization job '%s' not found", e.ID)
}

// NewNotFoundError marks a lookup for a job id that does not exist.
func NewNotFoundError(id uuid.UUID) error {
	return &notFoundError{ID: id}
}

// IsNotFound reports whether err marks a missing job.
func IsNotFound(err error) bool {
	var nf *notFoundError
	return errors.As(err, &nf)
}
