package domain

import "errors"

// Error kinds. Every user-visible failure matches exactly one via errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrFetchFailed   = errors.New("fetch failed")
	ErrUnauthorized  = errors.New("unauthorized access")
	ErrUnprocessable = errors.New("unprocessable entity")
	ErrCustom        = errors.New("request rejected")
	ErrValidation    = errors.New("validation failed")
)

// Error carries a user-facing message and its kind. The cause, if any,
// stays reachable through Unwrap for logging.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a kinded error.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf reports the kind of err, or nil when it carries none.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrFetchFailed, ErrUnauthorized, ErrUnprocessable, ErrCustom, ErrValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
