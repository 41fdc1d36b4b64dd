package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/testhelpers"
)

var errModelsExhausted = errors.NewSentinel("all models failed")

// statusError mimics an HTTP failure returned by a model endpoint.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

func logLine(t *testing.T, err error) string {
	t.Helper()
	var buf bytes.Buffer
	testhelpers.NewLogger(&buf).LogAttrs(t.Context(), slog.LevelError, "generation failed", errors.SlogError(err))
	return buf.String()
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "sentinel", err: errModelsExhausted, want: "all models failed"},
		{name: "new", err: errors.New("empty response", slog.String("model", "m1")), want: "empty response"},
		{
			name: "wrapped twice",
			err:  errors.Wrap(errors.Wrap(errModelsExhausted, "request plan"), "generate plan"),
			want: "generate plan: request plan: all models failed",
		},
		{
			name: "wrapped stdlib chain",
			err:  errors.Wrap(fmt.Errorf("call m2: %w", &statusError{status: 503}), "request plan"),
			want: "request plan: call m2: status 503",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_nil(t *testing.T) {
	if err := errors.Wrap(nil, "request plan", slog.String("model", "m1")); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestIsAsUnwrap(t *testing.T) {
	cause := &statusError{status: 429}
	err := errors.Wrap(errors.Join(errors.Wrap(cause, "call m1"), errModelsExhausted), "request plan")

	if !errors.Is(err, errModelsExhausted) {
		t.Error("Is() = false for a joined sentinel")
	}
	if errors.Is(err, errors.NewSentinel("all models failed")) {
		t.Error("Is() = true for a different sentinel with the same message")
	}

	var target *statusError
	if !errors.As(err, &target) || target != cause {
		t.Errorf("As() target = %v, want %v", target, cause)
	}

	//nolint:errorlint // Unwrap must return the exact cause.
	if got := errors.Unwrap(errors.Wrap(errModelsExhausted, "ctx")); got != errModelsExhausted {
		t.Errorf("Unwrap() = %v, want the sentinel", got)
	}
	if got := errors.Unwrap(errModelsExhausted); got != nil {
		t.Errorf("Unwrap(sentinel) = %v, want nil", got)
	}
}

func TestSlogError(t *testing.T) {
	inner := errors.New("empty response", slog.String("model", "m4"))
	err := errors.Wrap(inner, "request plan", slog.Duration("elapsed", 2*time.Second), slog.Int("attempts", 4))

	line := logLine(t, err)
	for _, want := range []string{
		`error.message="request plan: empty response"`,
		"error.annotations.elapsed=2s",
		"error.annotations.attempts=4",
		"error.annotations.model=m4",
		"error.source=annotatederror_test.go:",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q does not contain %q", line, want)
		}
	}
	if strings.Contains(line, "annotatederror.go") {
		t.Errorf("log line %q points into the errors package instead of the caller", line)
	}
}

func TestSlogError_oddInputs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{
			name: "stdlib wrap",
			err:  fmt.Errorf("parse: %w", errModelsExhausted),
			want: `error.message="parse: all models failed"`,
		},
		{name: "join of nils", err: errors.Wrap(errors.Join(nil, nil), "wrap"), want: ""},
		{
			name: "join of sentinels",
			err:  errors.Join(errors.NewSentinel("first"), errors.NewSentinel("second")),
			want: `error.message="first\nsecond"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := logLine(t, tt.err)
			if tt.want == "" {
				if strings.Contains(line, "error.") {
					t.Errorf("log line %q has an error attribute", line)
				}
				return
			}
			if !strings.Contains(line, tt.want) {
				t.Errorf("log line %q does not contain %q", line, tt.want)
			}
		})
	}
}

func TestDecoratePanic(t *testing.T) {
	if errors.DecoratePanic(nil) != nil {
		t.Error("DecoratePanic(nil) != nil")
	}

	defer func() {
		err := errors.DecoratePanic(recover())
		if err == nil {
			t.Fatal("expected error")
		}
		if got, want := err.Error(), "panic: requester exploded"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if line := logLine(t, err); !strings.Contains(line, "annotatederror_test.go:") {
			t.Errorf("log line %q does not point at the panic site", line)
		}
	}()
	panic("requester exploded")
}
