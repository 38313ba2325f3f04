package field

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for DescribeError:
// - errors, strings, Stringers and nil are rendered directly
// - plain values are rendered as JSON
// - values JSON cannot encode fall back to fmt formatting
// - multi-line messages collapse to one line
// - typed nil errors and panicking Error or String methods fall back to %#v

type stage int

func (s stage) String() string { return fmt.Sprintf("stage-%d", int(s)) }

type panickingError struct{}

func (panickingError) Error() string { panic("boom") }

type panickingStringer struct{ N int }

func (panickingStringer) String() string { panic("boom") }

func TestDescribeError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "unknown error"},
		{"error", errors.New("boom"), "boom"},
		{"wrapped error", fmt.Errorf("failed to load: %w", errors.New("disk")), "failed to load: disk"},
		{"validation error", missingString("lookupFieldId"), `Missing string "lookupFieldId" in config`},
		{"string", "plain message", "plain message"},
		{"stringer", stage(3), "stage-3"},
		{"map", map[string]any{"code": 7}, `{"code":7}`},
		{"channel", make(chan int), ""},
		{"func in struct", struct{ F func() }{}, "{<nil>}"},
		{"multi-line", "first line\n  second line\r\nthird", "first line second line third"},
		{"typed nil error", error((*ValidationError)(nil)), "(*field.ValidationError)(nil)"},
		{"panicking error", panickingError{}, "field.panickingError{}"},
		{"panicking stringer", panickingStringer{N: 2}, "field.panickingStringer{N:2}"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got string
			assert.NotPanics(t, func() { got = DescribeError(tt.input) })
			if tt.want == "" {
				assert.NotEmpty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
