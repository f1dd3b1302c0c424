package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZeroLogger writes structured JSON lines through zerolog.
// Notice messages are emitted at warn level so they survive an info filter set to notice.
type ZeroLogger struct {
	zl zerolog.Logger
}

var _ Logger = (*ZeroLogger)(nil)

// FormatJSON selects the zerolog backend in New
const FormatJSON = "json"

// New returns the logger for the configured format: JSON lines on stdout for "json",
// the console logger otherwise.
func New(format string, coloring bool, level Level) Logger {
	if format == FormatJSON {
		return NewZeroLogger(os.Stdout, level)
	}
	return NewStdLogger(coloring, level)
}

// NewZeroLogger creates a JSON logger writing to w.
func NewZeroLogger(w io.Writer, level Level) *ZeroLogger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(zerologLevel(level))
	return &ZeroLogger{zl: zl}
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case NoticeLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

func (l *ZeroLogger) event(e *zerolog.Event, chain Chain, format string, args ...interface{}) {
	if chain != None {
		e = e.Str("chain", chain.String())
	}
	e.Msgf(format, args...)
}

func (l *ZeroLogger) Info(format string, args ...interface{}) {
	l.event(l.zl.Info(), None, format, args...)
}

func (l *ZeroLogger) InfoWithChain(chain Chain, format string, args ...interface{}) {
	l.event(l.zl.Info(), chain, format, args...)
}

func (l *ZeroLogger) Error(format string, args ...interface{}) {
	l.event(l.zl.Error(), None, format, args...)
}

func (l *ZeroLogger) ErrorWithChain(chain Chain, format string, args ...interface{}) {
	l.event(l.zl.Error(), chain, format, args...)
}

func (l *ZeroLogger) Debug(format string, args ...interface{}) {
	l.event(l.zl.Debug(), None, format, args...)
}

func (l *ZeroLogger) DebugWithChain(chain Chain, format string, args ...interface{}) {
	l.event(l.zl.Debug(), chain, format, args...)
}

func (l *ZeroLogger) Notice(format string, args ...interface{}) {
	l.event(l.zl.Warn(), None, format, args...)
}

func (l *ZeroLogger) NoticeWithChain(chain Chain, format string, args ...interface{}) {
	l.event(l.zl.Warn(), chain, format, args...)
}
