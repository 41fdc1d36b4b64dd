package testhelpers

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

// Writer sends log output to t.Log so that it only shows up for failing tests.
type Writer struct {
	t    testing.TB
	done atomic.Bool
}

// NewWriter returns a Writer for t. Writing after t has finished panics, which surfaces servers and generators that
// outlive their test.
func NewWriter(t testing.TB) io.Writer {
	w := &Writer{t: t, done: atomic.Bool{}}
	t.Cleanup(func() { w.done.Store(true) })
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testhelpers: log written after test completion: " + strings.TrimSpace(string(p)))
	}
	for line := range strings.Lines(string(p)) {
		if line = strings.TrimRight(line, "\n"); line != "" {
			w.t.Log(line)
		}
	}
	return len(p), nil
}
