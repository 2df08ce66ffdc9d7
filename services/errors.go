package services

import "fmt"

// Business-rule failures are raised as typed errors at the point of
// violation; controllers translate them to HTTP statuses with errors.As.

// NotFoundError signals that a requested entity does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func notFoundf(format string, args ...interface{}) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// DuplicateError signals a unique-constraint violation such as a reused
// batch code, roll number, username or email.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

func duplicatef(format string, args ...interface{}) error {
	return &DuplicateError{Message: fmt.Sprintf(format, args...)}
}

// InvalidOperationError signals a business-rule violation: a full batch,
// a double check-in, a check-out without a check-in, bad credentials.
type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string { return e.Message }

func invalidOpf(format string, args ...interface{}) error {
	return &InvalidOperationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidArgumentError signals input that is structurally valid but not
// acceptable, such as shrinking a batch below its enrollment.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string { return e.Message }

func invalidArgf(format string, args ...interface{}) error {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}
