// Package domain holds the error types shared by services and handlers.
package domain

import (
	"errors"
	"fmt"
)

// Error codes carried in API error bodies.
const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal_error"
)

// Coded is implemented by every error type in this package.
type Coded interface {
	error
	Code() string
}

// NotFoundError reports a missing doctor, patient or specialization.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "record not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Code() string  { return CodeNotFound }
func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError rejects client input. Field names use the JSON spelling.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "invalid input"
}

func (e ValidationError) Code() string  { return CodeValidation }
func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError is raised on unique key clashes, in practice a reused email.
type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "already exists"
	}
	if e.Resource == "" {
		return msg
	}
	return fmt.Sprintf("%s %s", e.Resource, msg)
}

func (e ConflictError) Code() string  { return CodeConflict }
func (e ConflictError) Unwrap() error { return e.Err }

// UnauthorizedError is returned when a request carries no usable identity.
type UnauthorizedError struct {
	Msg string
	Err error
}

func (e UnauthorizedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unauthorized"
}

func (e UnauthorizedError) Code() string  { return CodeUnauthorized }
func (e UnauthorizedError) Unwrap() error { return e.Err }

// ForbiddenError is returned when a valid identity acts on another
// subject's record.
type ForbiddenError struct {
	Resource string
}

func (e ForbiddenError) Error() string {
	if e.Resource == "" {
		return "not allowed to access this record"
	}
	return fmt.Sprintf("not allowed to access this %s", e.Resource)
}

func (e ForbiddenError) Code() string { return CodeForbidden }

// InternalError wraps store and infrastructure failures. Msg is logged,
// never sent to clients.
type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return "internal error"
}

func (e InternalError) Code() string  { return CodeInternal }
func (e InternalError) Unwrap() error { return e.Err }

// CodeOf returns the code of the first Coded error in err's chain, or
// CodeInternal.
func CodeOf(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeInternal
}

func is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func IsNotFound(err error) bool     { return is[NotFoundError](err) }
func IsValidation(err error) bool   { return is[ValidationError](err) }
func IsConflict(err error) bool     { return is[ConflictError](err) }
func IsUnauthorized(err error) bool { return is[UnauthorizedError](err) }
func IsForbidden(err error) bool    { return is[ForbiddenError](err) }
func IsInternal(err error) bool     { return is[InternalError](err) }
