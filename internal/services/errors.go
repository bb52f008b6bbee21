package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// ValidationError reports malformed input: a non-positive amount, a missing
// reason, an empty line-item list. Surfaced to the caller as-is, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced record does not exist
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// InvalidStateError reports an operation attempted against an invoice whose
// status forbids it (CANCELLED or EXONERATED are terminal).
type InvalidStateError struct {
	InvoiceNumber string
	Status        models.InvoiceStatus
	Operation     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s invoice %s in status %s", e.Operation, e.InvoiceNumber, e.Status)
}

// AlreadyExoneratedError is the double-exoneration case of InvalidStateError
type AlreadyExoneratedError struct {
	InvoiceNumber string
}

func (e *AlreadyExoneratedError) Error() string {
	return fmt.Sprintf("invoice %s is already exonerated", e.InvoiceNumber)
}

// Unwrap lets errors.As treat this as an InvalidStateError as well
func (e *AlreadyExoneratedError) Unwrap() error {
	return &InvalidStateError{
		InvoiceNumber: e.InvoiceNumber,
		Status:        models.InvoiceStatusExonerated,
		Operation:     "exonerate",
	}
}

// ConcurrencyConflictError reports a lost race on per-invoice serialization,
// e.g. a gateway callback colliding with a manual payment. The only error in
// the taxonomy that callers should retry.
type ConcurrencyConflictError struct {
	InvoiceNumber string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of invoice %s", e.InvoiceNumber)
}

const conflictRetryAttempts = 3

// withConflictRetry runs fn, retrying up to three times with a growing pause
// when it fails with a ConcurrencyConflictError. Every other error is
// returned immediately.
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= conflictRetryAttempts; attempt++ {
		err = fn()
		var conflict *ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		if attempt < conflictRetryAttempts {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
	}
	return err
}
