package eval

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/source"
)

// Error is a failure raised while interpreting classical code.
type Error struct {
	Code    diag.Code
	Message string
	Span    source.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Message)
}

func errorf(code diag.Code, span source.Span, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// withSpan fills in the span of an Error raised without one.
func withSpan(err error, span source.Span) error {
	if e, ok := err.(*Error); ok && e.Span == (source.Span{}) {
		e.Span = span
	}
	return err
}
