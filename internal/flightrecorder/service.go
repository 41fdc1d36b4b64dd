// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when a request times out.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024
	defaultCooldown = 30 * time.Minute
)

// Service captures timeout traces with at most one capture per cooldown period.
type Service struct {
	logger          *slog.Logger
	flightRecorder  *trace.FlightRecorder
	tracesDirectory string
	minAge          time.Duration
	maxBytes        uint64
	cooldown        time.Duration
	lastCapture     atomic.Int64 // unix nanoseconds
}

// Config configures the flight recorder. Zero durations and sizes use the defaults.
type Config struct {
	Logger          *slog.Logger
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
	TracesDirectory string
}

func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.TracesDirectory == "" {
		return nil, errors.New("traces directory is required")
	}

	if stat, err := os.Stat(cfg.TracesDirectory); err != nil {
		if err = os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil {
			return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.TracesDirectory))
		}
	} else if !stat.IsDir() {
		return nil, errors.New("traces path is not a directory", slog.String("dir", cfg.TracesDirectory))
	}

	s := &Service{
		logger:          cfg.Logger,
		flightRecorder:  nil,
		tracesDirectory: cfg.TracesDirectory,
		minAge:          cfg.MinAge,
		maxBytes:        cfg.MaxBytes,
		cooldown:        cfg.Cooldown,
		lastCapture:     atomic.Int64{},
	}
	if s.minAge == 0 {
		s.minAge = defaultMinAge
	}
	if s.maxBytes == 0 {
		s.maxBytes = defaultMaxBytes
	}
	if s.cooldown == 0 {
		s.cooldown = defaultCooldown
	}
	s.flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: s.minAge, MaxBytes: s.maxBytes})
	return s, nil
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.flightRecorder.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.Duration("min_age", s.minAge),
		slog.Uint64("max_bytes", s.maxBytes),
		slog.Duration("cooldown", s.cooldown),
		slog.String("dir", s.tracesDirectory))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.flightRecorder.Stop()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// CaptureTimeoutTrace writes the recorded trace to a file named after route and returns the file path, or an empty
// string when the capture was skipped or failed. A nil Service captures nothing.
func (s *Service) CaptureTimeoutTrace(ctx context.Context, route string) string {
	if s == nil || !s.flightRecorder.Enabled() {
		return ""
	}

	now := time.Now()
	last := s.lastCapture.Load()
	if last > 0 && now.Sub(time.Unix(0, last)) < s.cooldown {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture due to cooldown",
			slog.Time("last_capture", time.Unix(0, last)))
		return ""
	}
	// Another goroutine won the capture.
	if !s.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return ""
	}

	fPath := filepath.Join(s.tracesDirectory,
		fmt.Sprintf("timeout-%s-%s.trace", sanitize(route), now.UTC().Format("20060102-150405")))
	file, err := os.Create(fPath)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to create trace file",
			slog.String("file", fPath), errors.SlogError(err))
		return ""
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to close trace file",
				slog.String("file", fPath), errors.SlogError(closeErr))
		}
	}()

	n, err := s.flightRecorder.WriteTo(file)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to write trace",
			slog.String("file", fPath), errors.SlogError(err))
		return ""
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "captured timeout trace",
		slog.String("file", fPath), slog.String("route", route), slog.Int64("bytes", n))
	return fPath
}

// sanitize turns a request path into a file name fragment.
func sanitize(route string) string {
	b := []byte(route)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
