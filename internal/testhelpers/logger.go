package testhelpers

import (
	"io"
	"log/slog"

	"github.com/zonroxx/FitQuest-AI/internal/logging"
)

// NewLogger creates a debug level logger writing to logSink, usually a [Writer] from [NewWriter].
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.NewLogger(logSink, slog.LevelDebug)
}
