package logging

import (
	"io"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the logging interface handed to the pipeline steps and CLI
// commands. It is implemented by *zap.SugaredLogger plus Name/Named.
//
// Loggers should be injected and usually Named: e.g. lggr.Named("offset").
//
// Levels
//   - Error: a step failed and the command is about to exit non-zero.
//   - Warn: the output is usable but suspicious (leftover segments after a
//     join, a corner flat that could not be cut, a dimension out of range).
//   - Info: one line per completed step.
//   - Debug: per-entity and per-vertex detail, shown with --verbose.
type Logger interface {
	// Name returns the fully qualified name of the logger.
	Name() string

	// Named returns a child logger with name appended to this one.
	Named(name string) Logger

	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(format string, values ...any)
	Infof(format string, values ...any)
	Warnf(format string, values ...any)
	Errorf(format string, values ...any)

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)

	// Sync flushes any buffered log entries.
	Sync() error
}

// Config selects the level and destination of a Logger.
type Config struct {
	Level zapcore.Level

	// Output receives the console-encoded entries. Nil means stderr.
	Output io.Writer
}

// New returns a console Logger on stderr. verbose enables debug entries.
func New(verbose bool) Logger {
	cfg := Config{Level: zapcore.InfoLevel}
	if verbose {
		cfg.Level = zapcore.DebugLevel
	}
	return cfg.New()
}

// New returns a Logger for Config.
func (c Config) New() Logger {
	out := c.Output
	if out == nil {
		out = os.Stderr
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(out),
		c.Level,
	)
	return &logger{zap.New(core).Named("cellomold").Sugar()}
}

// Test returns a new test Logger for tb.
func Test(tb testing.TB) Logger {
	tb.Helper()
	return &logger{zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Sugar()}
}

// TestObserved returns a new test Logger for tb and ObservedLogs at the
// given Level.
func TestObserved(tb testing.TB, lvl zapcore.Level) (Logger, *observer.ObservedLogs) {
	tb.Helper()
	oCore, logs := observer.New(lvl)
	observe := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, oCore)
	})
	return &logger{zaptest.NewLogger(tb, zaptest.WrapOptions(observe)).Sugar()}, logs
}

// Nop returns a no-op Logger.
func Nop() Logger {
	return &logger{zap.New(zapcore.NewNopCore()).Sugar()}
}

type logger struct {
	*zap.SugaredLogger
}

func (l *logger) Name() string {
	return l.Desugar().Name()
}

func (l *logger) Named(name string) Logger {
	return &logger{l.SugaredLogger.Named(name)}
}
