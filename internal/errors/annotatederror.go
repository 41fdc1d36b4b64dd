// Package errors wraps the standard library errors with slog annotations and source locations.
//
// Errors created with [New] and [Wrap] remember where they were created and carry [slog.Attr] values that
// [SlogError] flattens into a log attribute. Sentinels created with [NewSentinel] carry neither, so they are cheap
// to declare as package-level variables.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

type annotatedError struct {
	msg    string
	cause  error
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// NewSentinel creates an error without annotations for use with [Is].
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// New creates an annotated error that records the caller's location.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		cause:  nil,
		attrs:  attrs,
		source: callerSource(2), //nolint:mnd // skip callerSource and New.
	}
}

// Wrap annotates err with a context message and attributes. Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{
		msg:    msg,
		cause:  err,
		attrs:  attrs,
		source: callerSource(2), //nolint:mnd // skip callerSource and Wrap.
	}
}

// DecoratePanic converts a value returned by recover into an error located at the panic site.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	var cause error
	msg := fmt.Sprintf("panic: %v", excp)
	if err, ok := excp.(error); ok {
		cause = err
		msg = "panic"
	}
	return &annotatedError{
		msg:    msg,
		cause:  cause,
		attrs:  nil,
		source: panicSource(),
	}
}

// SlogError returns an attribute grouping the error message, the annotations collected from the whole error tree
// and the source location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	var (
		annotations []any
		source      string
	)
	walk(err, func(e error) {
		if ae, ok := e.(*annotatedError); ok { //nolint:errorlint // each node of the tree is inspected separately.
			for _, a := range ae.attrs {
				annotations = append(annotations, a)
			}
			if ae.source != "" {
				source = ae.source
			}
		}
	})
	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

// walk visits err and every error reachable through Unwrap, depth first.
func walk(err error, visit func(error)) {
	if err == nil {
		return
	}
	visit(err)
	switch e := err.(type) { //nolint:errorlint // we need the concrete unwrap method.
	case interface{ Unwrap() error }:
		walk(e.Unwrap(), visit)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			walk(inner, visit)
		}
	}
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return shortFile(file) + ":" + strconv.Itoa(line)
}

// panicSource finds the frame that called panic by skipping past runtime.gopanic.
func panicSource() string {
	pcs := make([]uintptr, 32) //nolint:mnd // deep enough for deferred recover handlers.
	n := runtime.Callers(3, pcs) //nolint:mnd // skip Callers, panicSource and DecoratePanic.
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return shortFile(frame.File) + ":" + strconv.Itoa(frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			break
		}
	}
	return callerSource(3) //nolint:mnd // fall back to the code calling DecoratePanic.
}

func shortFile(file string) string {
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		return file[i+1:]
	}
	return file
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
