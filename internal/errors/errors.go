package errors

import (
	"errors"
	"fmt"
)

// Application-specific errors
var (
	ErrRecipientBlocked = errors.New("recipient blocked or unreachable")
	ErrRetryExhausted   = errors.New("retry budget exhausted")
	ErrNoData           = errors.New("no reference data")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error `json:"errors"`
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Add adds an error to the MultiError
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// FetchError represents a feed fetch failure after the retry budget ran out
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e FetchError) Unwrap() error {
	return e.Err
}

// StoreError represents a failure of the persisted seen-id store
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e StoreError) Unwrap() error {
	return e.Err
}

// PipelineError represents an entry-processing failure at a named stage
type PipelineError struct {
	Stage   string
	EntryID string
	Err     error
}

func (e PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %s for entry %s: %v", e.Stage, e.EntryID, e.Err)
}

func (e PipelineError) Unwrap() error {
	return e.Err
}
