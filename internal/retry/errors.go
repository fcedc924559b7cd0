package retry

import (
	"errors"
	"fmt"
)

// ErrTransient and ErrTerminal are sentinel errors operations use to classify
// their failures. Transient failures are retried until the attempt budget is
// spent; terminal failures short-circuit immediately.
var (
	ErrTransient = errors.New("transient failure")
	ErrTerminal  = errors.New("terminal failure")
)

// WrapTransient annotates an error so the executor will retry it.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// WrapTerminal annotates an error so the executor stops without retrying.
func WrapTerminal(err error) error {
	if err == nil {
		return ErrTerminal
	}
	return fmt.Errorf("%w: %v", ErrTerminal, err)
}

// RetriesExhaustedError is returned once every attempt has failed transiently.
// It carries the attempt count and the error from the final attempt.
type RetriesExhaustedError struct {
	Attempts int
	LastErr  error
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempt(s): %v", e.Attempts, e.LastErr)
}

// Unwrap exposes the final attempt's error for errors.Is/As chains.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.LastErr
}
