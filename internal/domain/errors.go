package domain

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode classifies failures surfaced by the device subsystem.
type ErrorCode string

const (
	// CodeKeyNotFound: the operation needs an initialized identity that is absent.
	CodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"
	// CodeInvalidMessage: malformed payload, code mismatch, expired code or
	// an attempt to unlink the current device.
	CodeInvalidMessage ErrorCode = "INVALID_MESSAGE"
	// CodeNetworkError: the operation needs a capability that is not available.
	CodeNetworkError ErrorCode = "NETWORK_ERROR"
	CodeStorageError ErrorCode = "STORAGE_ERROR"
	CodeCryptoError  ErrorCode = "CRYPTO_ERROR"
)

// Error is a classified failure. Err, when set, is the underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Sentinels for errors.Is; any *Error with the same Code matches.
var (
	ErrKeyNotFound    = &Error{Code: CodeKeyNotFound}
	ErrInvalidMessage = &Error{Code: CodeInvalidMessage}
	ErrNetwork        = &Error{Code: CodeNetworkError}
	ErrStorage        = &Error{Code: CodeStorageError}
	ErrCrypto         = &Error{Code: CodeCryptoError}
)

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches bare sentinels (no message, no cause) by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Err != nil {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// KeyNotFound returns a KEY_NOT_FOUND error with a stack trace.
func KeyNotFound(format string, args ...any) error {
	return errors.WithStack(&Error{Code: CodeKeyNotFound, Message: fmt.Sprintf(format, args...)})
}

// InvalidMessage returns an INVALID_MESSAGE error with a stack trace.
func InvalidMessage(format string, args ...any) error {
	return errors.WithStack(&Error{Code: CodeInvalidMessage, Message: fmt.Sprintf(format, args...)})
}

// NetworkError returns a NETWORK_ERROR error with a stack trace.
func NetworkError(format string, args ...any) error {
	return errors.WithStack(&Error{Code: CodeNetworkError, Message: fmt.Sprintf(format, args...)})
}

// StorageError classifies err as a storage failure. Errors that already carry
// a code are returned with added context only.
func StorageError(err error, message string) error {
	return classify(CodeStorageError, err, message)
}

// CryptoError classifies err as a primitives failure.
func CryptoError(err error, message string) error {
	return classify(CodeCryptoError, err, message)
}

func classify(code ErrorCode, err error, message string) error {
	if err == nil {
		return nil
	}
	if CodeOf(err) != "" {
		return errors.Wrap(err, message)
	}
	return errors.WithStack(&Error{Code: code, Message: message, Err: err})
}
