package schema

import "fmt"

// ParseError reports a malformed type or relation string. Parse failures are
// always returned as *ParseError so callers can separate them from validation
// findings, which are plain values.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}
