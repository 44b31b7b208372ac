// Package apperr defines the failure taxonomy shared by the checkout and
// stock adjustment paths. Failures are returned as *Error values so callers
// can render precise messages, including every failed cart line.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidRequest         Kind = "invalid_request"
	KindNotFound               Kind = "not_found"
	KindInsufficientStock      Kind = "insufficient_stock"
	KindNegativeStockRejected  Kind = "negative_stock_rejected"
	KindStoreUnavailable       Kind = "store_unavailable"
	KindWriteConflictExhausted Kind = "write_conflict_exhausted"
)

// FailedItem describes one cart line that could not be fulfilled.
type FailedItem struct {
	ProductID uuid.UUID
	Requested int64
	Available int64
}

type Error struct {
	Kind        Kind
	Message     string
	FailedItems []FailedItem
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the whole operation may succeed.
// Store failures never leave partial writes behind, so they are always safe to repeat.
func (e *Error) Retryable() bool {
	return e.Kind == KindStoreUnavailable || e.Kind == KindWriteConflictExhausted
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func InsufficientStock(items []FailedItem) *Error {
	return &Error{
		Kind:        KindInsufficientStock,
		Message:     "insufficient stock for one or more items",
		FailedItems: items,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Invalid converts a validation failure into an InvalidRequest error, naming
// each offending field.
func Invalid(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Wrap(KindInvalidRequest, "invalid request", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}

	return New(KindInvalidRequest, "invalid request: "+strings.Join(msgs, ", "))
}

// FromStore classifies an error coming out of a store transaction. Taxonomy
// errors raised inside the transaction body pass through unchanged.
func FromStore(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, txn.ErrConflictExhausted):
		return Wrap(KindWriteConflictExhausted, "too much contention, try again", err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return Wrap(KindStoreUnavailable, "store unavailable", err)
	}
}
