// Package fault defines the stable failure taxonomy shared by every service
// surface: a kind the caller can branch on plus a human-readable message.
// Internal detail stays in logs and never rides along on this type.
package fault

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindPermissionDenied  Kind = "permission_denied"
	KindInsufficientStock Kind = "insufficient_stock"
	KindInvalidTransition Kind = "invalid_transition"
	KindSelfPurchase      Kind = "self_purchase"
	KindLockTimeout       Kind = "lock_timeout"
	KindStoreFailure      Kind = "store_failure"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether re-running the whole operation from scratch is
// safe and may succeed. Only lock-wait timeouts qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindLockTimeout
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func PermissionDenied(format string, args ...any) *Error {
	return newError(KindPermissionDenied, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return newError(KindInsufficientStock, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return newError(KindInvalidTransition, format, args...)
}

func SelfPurchase(format string, args ...any) *Error {
	return newError(KindSelfPurchase, format, args...)
}

func LockTimeout(format string, args ...any) *Error {
	return newError(KindLockTimeout, format, args...)
}

func StoreFailure(format string, args ...any) *Error {
	return newError(KindStoreFailure, format, args...)
}

// KindOf extracts the kind from any error in the chain; unclassified errors
// count as store failures.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindStoreFailure
}

// MessageOf returns the user-facing message for classified errors and the raw
// error text otherwise.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}
