package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "notice":
		return NoticeLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level: %s", s)
}

// Chain identifies which ledger a log line is about.
type Chain int

const (
	None Chain = iota
	Avax
	Algo
)

func (c Chain) String() string {
	switch c {
	case Avax:
		return "avax"
	case Algo:
		return "algo"
	}
	return ""
}

var chainPrefixes = map[Chain]string{
	None: "",
	Avax: "[AVAX] ",
	Algo: "[ALGO] ",
}

var colors = map[Chain]color.Attribute{
	None: color.FgWhite,
	Avax: color.FgRed,
	Algo: color.FgHiCyan,
}

// Logger is a simple interface for logging messages.
type Logger interface {
	// Info logs an informational message.
	Info(format string, args ...interface{})
	InfoWithChain(chain Chain, format string, args ...interface{})

	// Error logs an error message.
	Error(format string, args ...interface{})
	ErrorWithChain(chain Chain, format string, args ...interface{})

	// Debug logs a debug message.
	Debug(format string, args ...interface{})
	DebugWithChain(chain Chain, format string, args ...interface{})

	// Notice logs a notice message.
	Notice(format string, args ...interface{})
	NoticeWithChain(chain Chain, format string, args ...interface{})
}

// EmptyLogger is a simple implementation of the Logger interface that does nothing.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Info(_ string, _ ...interface{})                     {}
func (l *EmptyLogger) InfoWithChain(_ Chain, _ string, _ ...interface{})   {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) ErrorWithChain(_ Chain, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Debug(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) DebugWithChain(_ Chain, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{})                   {}
func (l *EmptyLogger) NoticeWithChain(_ Chain, _ string, _ ...interface{}) {}

// StdLogger is a standard implementation of the Logger interface that logs messages to the console.
type StdLogger struct {
	enableColoring bool
	level          Level
	mu             sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
	}
}

// formatMessage formats the log message with the appropriate log level, chain prefix, and coloring if enabled.
func (l *StdLogger) formatMessage(level Level, chain Chain, format string) string {
	chainPrefix := chainPrefixes[chain]
	if l.enableColoring {
		chainPrefix = color.New(colors[chain]).Sprint(chainPrefix)
	}

	var levelStr string
	switch level {
	case DebugLevel:
		levelStr = "[DEBUG]  "
	case InfoLevel:
		levelStr = "[INFO]   "
	case NoticeLevel:
		levelStr = "[NOTICE] "
	case ErrorLevel:
		levelStr = "[ERROR]  "
	}

	return levelStr + chainPrefix + format
}

func (l *StdLogger) print(level Level, chain Chain, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= level {
		log.Printf(l.formatMessage(level, chain, format), args...)
	}
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.print(InfoLevel, None, format, args...)
}

func (l *StdLogger) InfoWithChain(chain Chain, format string, args ...interface{}) {
	l.print(InfoLevel, chain, format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.print(ErrorLevel, None, format, args...)
}

func (l *StdLogger) ErrorWithChain(chain Chain, format string, args ...interface{}) {
	l.print(ErrorLevel, chain, format, args...)
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.print(DebugLevel, None, format, args...)
}

func (l *StdLogger) DebugWithChain(chain Chain, format string, args ...interface{}) {
	l.print(DebugLevel, chain, format, args...)
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.print(NoticeLevel, None, format, args...)
}

func (l *StdLogger) NoticeWithChain(chain Chain, format string, args ...interface{}) {
	l.print(NoticeLevel, chain, format, args...)
}
