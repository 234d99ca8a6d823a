package query

import "fmt"

// ErrorKind classifies a ParseError.
type ErrorKind string

const (
	InvalidOperator   ErrorKind = "invalid_operator"
	InvalidPagination ErrorKind = "invalid_pagination"
	InvalidProjection ErrorKind = "invalid_projection"
	InvalidField      ErrorKind = "invalid_field"
	ForbiddenField    ErrorKind = "forbidden_field"
)

// ParseError reports a query parameter that has no safe default.
type ParseError struct {
	Kind   ErrorKind
	Param  string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Param, e.Detail)
}

// Is matches on Kind so errors.Is(err, ErrInvalidOperator) works.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidOperator   = &ParseError{Kind: InvalidOperator, Detail: "unknown operator"}
	ErrInvalidPagination = &ParseError{Kind: InvalidPagination, Detail: "page out of range"}
	ErrInvalidProjection = &ParseError{Kind: InvalidProjection, Detail: "cannot mix included and excluded fields"}
	ErrInvalidField      = &ParseError{Kind: InvalidField, Detail: "invalid field name"}
	ErrForbiddenField    = &ParseError{Kind: ForbiddenField, Detail: "field cannot be queried"}
)

func parseErr(kind ErrorKind, param, detail string) *ParseError {
	return &ParseError{Kind: kind, Param: param, Detail: detail}
}
