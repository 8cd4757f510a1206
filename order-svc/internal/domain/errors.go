package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrSessionConflict   = errors.New("pending payment session already exists for this scope")
	ErrIllegalTransition = errors.New("illegal transition of payment session status")
)

// ValidationError rejects input before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError is a transient failure of one store operation.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ProviderError wraps a payment gateway failure.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ConflictError reports that a scope already has a pending session, or that
// an order code is taken when OrderCode is empty.
type ConflictError struct {
	OrderCode string
}

func (e *ConflictError) Error() string {
	if e.OrderCode == "" {
		return "order code already in use"
	}
	return fmt.Sprintf("pending payment session %s already exists", e.OrderCode)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrSessionConflict
}

var (
	ErrInvalidScope   = &ValidationError{Field: "scope", Reason: "user_id, restaurant_id and a valid date are required"}
	ErrPaidLineLocked = &ValidationError{Field: "items", Reason: "paid order lines cannot be changed or removed"}
	ErrLineInCheckout = &ValidationError{Field: "items", Reason: "order line is held by an unfinished payment"}
	ErrPastOrderDay   = &ValidationError{Field: "date", Reason: "orders for past days can no longer be changed"}
	ErrEmptyCheckout  = &ValidationError{Field: "order_ids", Reason: "at least one order line is required"}
	ErrUnknownOrder   = &ValidationError{Field: "order_ids", Reason: "order line does not exist"}
	ErrForeignOrder   = &ValidationError{Field: "order_ids", Reason: "order line belongs to another user or day"}
	ErrAlreadyPaid    = &ValidationError{Field: "order_ids", Reason: "order line is already paid"}
	ErrAmountMismatch = &ValidationError{Field: "amount", Reason: "amount does not match the order lines"}
	ErrNotSettleable  = &ValidationError{Field: "status", Reason: "only completed sessions can be settled"}
	ErrNotSessionUser = &ValidationError{Field: "user_id", Reason: "payment session belongs to another user"}
)
