package apiclient

import (
	"fmt"
)

// Outcome discriminates a write Result.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeFieldErrors  Outcome = "field_errors"
	OutcomeGenericError Outcome = "error"
)

// Result is the single shape every create/update call returns, whatever error
// format the server used.
type Result[T any] struct {
	Outcome     Outcome
	Record      T
	FieldErrors map[string]string
	Message     string
	Err         error
}

func Ok[T any](record T) Result[T] {
	return Result[T]{Outcome: OutcomeOK, Record: record}
}

func FieldErrors[T any](fields map[string]string, message string) Result[T] {
	if message == "" {
		message = fieldErrorsMessage
	}
	return Result[T]{Outcome: OutcomeFieldErrors, FieldErrors: fields, Message: message}
}

func GenericError[T any](message string, err error) Result[T] {
	if message == "" {
		message = genericErrorMessage
	}
	return Result[T]{Outcome: OutcomeGenericError, Message: message, Err: err}
}

func (r Result[T]) OK() bool {
	return r.Outcome == OutcomeOK
}

// AsError returns nil for OutcomeOK and an error describing the rejection otherwise.
func (r Result[T]) AsError() error {
	switch r.Outcome {
	case OutcomeOK:
		return nil
	case OutcomeFieldErrors:
		return fmt.Errorf("rejected: %s (%d field errors)", r.Message, len(r.FieldErrors))
	default:
		if r.Err != nil {
			return fmt.Errorf("%s: %w", r.Message, r.Err)
		}
		return fmt.Errorf("%s", r.Message)
	}
}

// APIError is returned by list and delete calls that the server rejected or never answered.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}
