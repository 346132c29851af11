// Package simlog provides the structured logging used across the
// simulation core. It wraps logrus the same way the rest of the engine
// does: one configured *logrus.Logger per process, scoped *logrus.Entry
// values per component.
package simlog

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is the minimum severity a logger will emit.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logger configuration.
type Config struct {
	Level     Level
	AddCaller bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Level:     InfoLevel,
		AddCaller: false,
	}
}

// New creates a configured logrus.Logger.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(parseLevel(cfg.Level))
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})
	logger.SetReportCaller(cfg.AddCaller)
	logger.SetOutput(os.Stdout)
	return logger
}

// NewFromEnv creates a logger configured from the LOG_LEVEL environment
// variable, falling back to DefaultConfig.
func NewFromEnv() *logrus.Logger {
	cfg := DefaultConfig()
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Level = Level(strings.ToLower(lvl))
	}
	return New(cfg)
}

func parseLevel(l Level) logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SystemLogger scopes a logger to a named subsystem, e.g. "scheduler",
// "collision", "spawn".
func SystemLogger(logger *logrus.Logger, system string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{"system": system})
}

// ComponentLogger scopes a logger to a named component, e.g. a tool or
// driver built on top of the core.
func ComponentLogger(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{"component": component})
}

// RateLimited wraps an entry so repeated Warn calls for the same key are
// emitted at most once per second while still counting every call. Used
// for per-tick conditions (invariant violations, spawn exhaustion) that
// would otherwise flood the log at 60 Hz.
type RateLimited struct {
	entry *logrus.Entry

	mu      sync.Mutex
	last    map[string]time.Time
	counts  map[string]uint64
	minGap  time.Duration
	nowFunc func() time.Time
}

// NewRateLimited creates a rate-limited warning logger over entry.
func NewRateLimited(entry *logrus.Entry) *RateLimited {
	return &RateLimited{
		entry:   entry,
		last:    make(map[string]time.Time),
		counts:  make(map[string]uint64),
		minGap:  time.Second,
		nowFunc: time.Now,
	}
}

// Warn logs msg under key at most once per second; every call increments
// the call counter for key regardless of whether it was emitted, and the
// emitted line carries the running total.
func (r *RateLimited) Warn(key, msg string, fields logrus.Fields) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[key]++
	now := r.nowFunc()
	if last, ok := r.last[key]; ok && now.Sub(last) < r.minGap {
		return
	}
	r.last[key] = now

	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["count"] = r.counts[key]
	r.entry.WithFields(fields).Warn(msg)
}

// Count returns how many times Warn has been called for key, emitted or not.
func (r *RateLimited) Count(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}
