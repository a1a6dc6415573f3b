package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable degrades the run; it never aborts it.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrStoreUnavailable aborts the run.
	ErrStoreUnavailable = errors.New("history store unavailable")
	ErrDuplicateSignal  = errors.New("duplicate signal")
	ErrLowConfidence    = errors.New("low confidence")
)

// ProviderError wraps a failed call to an external data provider.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: unavailable", e.Provider, e.Op)
}

// Unwrap exposes both the cause and ErrProviderUnavailable to errors.Is.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProviderUnavailable}
	}
	return []error{ErrProviderUnavailable, e.Err}
}

func NewProviderError(provider, op string, err error) error {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// StoreError wraps a history store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
