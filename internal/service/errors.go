package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var ErrNotFound = errors.New("not found")

var (
	ErrReservationNotFound = notFound("reservation not found")
	ErrOrderNotFound       = notFound("order not found")
	ErrOrderItemNotFound   = notFound("order item not found")
	ErrMenuItemNotFound    = notFound("menu item not found")
	ErrCategoryNotFound    = notFound("category not found")
	ErrStaffNotFound       = notFound("staff member not found")
	ErrNoFeedback          = notFound("no feedback data available")
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInsufficientAmount = errors.New("amount received is less than the order total")
	ErrCapacityExceeded   = errors.New("no table is free for the requested time")
	ErrPaymentDeclined    = errors.New("payment was declined")
	ErrPaymentTimeout     = errors.New("payment provider did not respond in time")
	ErrPaymentInProgress  = errors.New("a payment for this order is still in progress")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrPersistence        = errors.New("storage operation failed")
	ErrCategoryInUse      = errors.New("category still has menu items")
	ErrMenuItemInUse      = errors.New("menu item is referenced by orders or feedback")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type notFoundError struct{ msg string }

func notFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// validator collects field errors; err returns nil when none were added.
type validator struct {
	fields map[string]string
}

func (v *validator) add(field, msg string) {
	if v.fields == nil {
		v.fields = map[string]string{}
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

func (v *validator) check(ok bool, field, msg string) {
	if !ok {
		v.add(field, msg)
	}
}

// maxChars limits value to limit characters, counted as runes to match the
// varchar columns.
func (v *validator) maxChars(value string, limit int, field string) {
	v.check(utf8.RuneCountInString(value) <= limit, field, fmt.Sprintf("must be at most %d characters", limit))
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
