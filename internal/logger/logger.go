// Package logger provides structured logging and run metrics for gensec-template.
//
// Logging is backed by zerolog. Messages carry arbitrary structured fields and an
// optional error, and are written as JSON or, for interactive use, in zerolog's
// console format. Package-level functions log through a replaceable default logger,
// which writes warnings and errors to stderr until the CLI configures it.
//
// Example usage:
//
//	logger.Info("Fetched lab index", logger.Fields{
//	    "labs": 12,
//	    "url":  baseURL,
//	})
//
//	logger.Error("Lab page request failed", logger.Fields{
//	    "lab_id":   "G01.3_ProgramModel",
//	    "attempts": 3,
//	}, err)
//
//	logger.IncrCounter("http.retries")
//	logger.RecordTiming("http.fetch", duration)
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel parses a level name case-insensitively
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level: %s", s)
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	zl zerolog.Logger
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewConsole(LevelWarn, os.Stderr)
)

// New creates a JSON logger that discards messages below level
func New(level Level, w io.Writer) *Logger {
	return &Logger{
		zl: zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger(),
	}
}

// NewConsole creates a human readable logger for terminals
func NewConsole(level Level, w io.Writer) *Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.Kitchen,
	}
	return &Logger{
		zl: zerolog.New(out).Level(level.zerolog()).With().Timestamp().Logger(),
	}
}

// With returns a child logger that tags every message with a component name
func (l *Logger) With(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// SetDefault replaces the logger used by the package-level functions
func SetDefault(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Default returns the logger used by the package-level functions
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func (l *Logger) log(e *zerolog.Event, message string, fields Fields, err error) {
	if len(fields) > 0 {
		// zerolog only recognises the plain map type
		e = e.Fields(map[string]interface{}(fields))
	}
	if err != nil {
		e = e.Err(err)
	}
	e.Msg(message)
}

// Debug logs detailed diagnostic information
func (l *Logger) Debug(message string, fields Fields) {
	l.log(l.zl.Debug(), message, fields, nil)
}

// Info logs general operational information
func (l *Logger) Info(message string, fields Fields) {
	l.log(l.zl.Info(), message, fields, nil)
}

// Warn logs a problem that did not stop the operation
func (l *Logger) Warn(message string, fields Fields) {
	l.log(l.zl.Warn(), message, fields, nil)
}

// Error logs a failure together with its error
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(l.zl.Error(), message, fields, err)
}

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	Default().Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	Default().Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	Default().Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	Default().Error(message, fields, err)
}

// TimingStats aggregates the durations recorded under one name
type TimingStats struct {
	Count int
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Average returns the mean duration
func (s TimingStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Snapshot is a point-in-time copy of all metrics
type Snapshot struct {
	Counters map[string]int64
	Timings  map[string]TimingStats
}

// Lines renders the snapshot as sorted "name value" lines
func (s Snapshot) Lines() []string {
	lines := make([]string, 0, len(s.Counters)+len(s.Timings))
	for name, v := range s.Counters {
		lines = append(lines, fmt.Sprintf("%s %d", name, v))
	}
	for name, t := range s.Timings {
		lines = append(lines, fmt.Sprintf("%s count=%d avg=%s min=%s max=%s",
			name, t.Count, t.Average(), t.Min, t.Max))
	}
	sort.Strings(lines)
	return lines
}

// Metrics tracks counters and timings. All operations are thread-safe.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string]TimingStats
}

var defaultMetrics = NewMetrics()

// NewMetrics creates an empty metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		timings:  make(map[string]TimingStats),
	}
}

// IncrCounter increments a counter by 1
func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// RecordTiming adds a duration measurement
func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.timings[name]
	if !ok || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Count++
	s.Total += d
	m.timings[name] = s
}

// Snapshot returns a copy of the current metrics
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Timings:  make(map[string]TimingStats, len(m.timings)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}
	for k, v := range m.timings {
		snap.Timings[k] = v
	}
	return snap
}

// IncrCounter increments a counter on the default metrics tracker
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// RecordTiming records a timing on the default metrics tracker
func RecordTiming(name string, d time.Duration) {
	defaultMetrics.RecordTiming(name, d)
}

// MetricsSnapshot returns a snapshot of the default metrics tracker
func MetricsSnapshot() Snapshot {
	return defaultMetrics.Snapshot()
}
