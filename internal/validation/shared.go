package validation

import (
	"sort"
	"strings"
)

// Error collects per-field validation messages of a request body.
type Error struct {
	Fields map[string]string
}

// fieldError returns an Error holding a single field message.
func fieldError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

// Error lists the field messages sorted by field name.
func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(field + ": " + e.Fields[field])
	}
	return b.String()
}
