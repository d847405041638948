package registrar

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for registrar calls.
type Category string

const (
	// CategoryTransient covers network failures, 5xx and 429. Worth retrying.
	CategoryTransient Category = "transient"
	// CategoryNotFound is a 404. For lookups it is a valid branch, for actions it is terminal.
	CategoryNotFound Category = "not_found"
	// CategoryConflict is a 409, e.g. the domain is held by someone else.
	CategoryConflict Category = "conflict"
	// CategoryRejected is any other 4xx, including auth failures.
	CategoryRejected Category = "rejected"
	// CategoryBadData means the response could not be decoded or validated.
	CategoryBadData Category = "bad_data"
	// CategoryCircuitOpen means the call was not attempted.
	CategoryCircuitOpen Category = "circuit_open"
)

type Error struct {
	Category   Category
	Call       string
	StatusCode int
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("registrar %s [%s]", e.Call, e.Category)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func (e *Error) Retryable() bool {
	return e.Category == CategoryTransient
}

func newError(category Category, call string, status int, message string, underlying error) *Error {
	return &Error{Category: category, Call: call, StatusCode: status, Message: message, Underlying: underlying}
}

// CategoryOf returns the category of a registrar error, or "" for other errors.
func CategoryOf(err error) Category {
	var re *Error
	if errors.As(err, &re) {
		return re.Category
	}
	return ""
}

func IsNotFound(err error) bool {
	return CategoryOf(err) == CategoryNotFound
}

func IsRetryable(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Retryable()
}

func categorize(status int) Category {
	switch {
	case status == 404:
		return CategoryNotFound
	case status == 409:
		return CategoryConflict
	case status == 429 || status >= 500:
		return CategoryTransient
	default:
		return CategoryRejected
	}
}
