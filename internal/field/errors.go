package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation error")

// ValidationError reports persisted field configuration that cannot be used.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidJSON(label string) error {
	return &ValidationError{Message: fmt.Sprintf("Invalid JSON for %s", label)}
}

func missingString(key string) error {
	return &ValidationError{Message: fmt.Sprintf("Missing string %q in config", key)}
}

// DescribeError renders any recovered or returned value as a single log line.
// It never panics: a value whose Error or String method panics, including a
// typed nil, is rendered with %#v, and values that cannot be marshaled fall
// back to fmt formatting.
func DescribeError(v any) (out string) {
	if v == nil {
		return "unknown error"
	}
	defer func() {
		if r := recover(); r != nil {
			out = singleLine(fmt.Sprintf("%#v", v))
		}
	}()

	var msg string
	switch e := v.(type) {
	case error:
		msg = e.Error()
	case string:
		msg = e
	case fmt.Stringer:
		msg = e.String()
	default:
		msg = marshalOrSprint(v)
	}
	return singleLine(msg)
}

func marshalOrSprint(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprint(v)
		}
	}()
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func singleLine(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
