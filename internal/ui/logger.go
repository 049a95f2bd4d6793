package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// syncer is an interface for types that can sync to disk.
// Both *os.File and *SyncWriter implement this.
type syncer interface {
	Sync() error
}

type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelDebug
	LogLevelDebugVerbose
)

const timestampLayout = "2006-01-02T15:04:05.000"

// Options configures the Logger.
type Options struct {
	// Out is where user-facing logs are printed. extver keeps stdout for
	// resolved paths, so this is usually os.Stderr.
	Out io.Writer

	// FullLogWriter, if non-nil, receives every log line in plain text.
	FullLogWriter io.Writer

	// LogLevel controls the amount of logs printed to Out.
	// error < info < warn < debug < debugVerbose
	LogLevel LogLevel

	// Component identifies the source of log messages (e.g. "select").
	// If empty, no component tag is included in log output.
	Component string
}

// Logger is the console logger. Every line also goes to the full log when
// one is attached.
type Logger struct {
	out       io.Writer
	outOrig   io.Writer
	full      io.Writer
	mu        sync.Mutex
	style     styles
	component string

	logLevel LogLevel

	// fullLogBuffer holds log lines written before full log writer is set.
	// Once the full writer is set, this buffer is flushed and cleared.
	fullLogBuffer []string
}

type styles struct {
	logInfo  lipgloss.Style
	logWarn  lipgloss.Style
	logError lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		logInfo:  lipgloss.NewStyle(),
		logWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange-ish
		logError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
	}
}

// New creates a new Logger.
func New(opts Options) *Logger {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}

	return &Logger{
		out:       opts.Out,
		outOrig:   opts.Out,
		full:      opts.FullLogWriter,
		style:     defaultStyles(),
		logLevel:  opts.LogLevel,
		component: opts.Component,
	}
}

// MuteStdout discards console output until restore is called. The full log
// keeps receiving lines.
func (l *Logger) MuteStdout() (restore func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = io.Discard
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.out = l.outOrig
	}
}

func (l *Logger) SetFullLogWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.full != nil {
		errMsg := fmt.Sprintf("[%s] [ERR ] attempted to set full log writer when already set, ignoring", time.Now().Format(timestampLayout))
		fmt.Fprintln(l.out, l.style.logError.Render(errMsg))
		return
	}

	l.full = w

	for _, line := range l.fullLogBuffer {
		io.WriteString(l.full, line)
	}
	l.fullLogBuffer = nil
}

func (l *Logger) SetComponent(component string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.component = component
}

func (l *Logger) SetLogLevel(logLevel LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logLevel = logLevel
}

func (l *Logger) level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logLevel
}

// writeFullLogLocked writes to the full log writer if set, otherwise buffers.
// Must be called with l.mu held.
func (l *Logger) writeFullLogLocked(line string) {
	if l.full != nil {
		io.WriteString(l.full, line)
	} else {
		l.fullLogBuffer = append(l.fullLogBuffer, line)
	}
}

// Close syncs and closes the full log if it supports it.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.full.(syncer); ok {
		_ = s.Sync()
	}
	if c, ok := l.full.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Logger) Error(format string, args ...any) {
	l.printLog(false, "ERR ", l.style.logError, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	silent := l.level() < LogLevelInfo
	l.printLog(silent, "INFO", l.style.logInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	silent := l.level() < LogLevelWarn
	l.printLog(silent, "WARN", l.style.logWarn, format, args...)
}

// InfoSilent writes to the full log only.
func (l *Logger) InfoSilent(format string, args ...any) {
	l.printLog(true, "INFO", l.style.logInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if l.level() >= LogLevelDebug {
		l.printLog(false, "DEBG", l.style.logInfo, format, args...)
	}
}

func (l *Logger) formatCaller(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.level() < LogLevelDebugVerbose {
		return msg
	}
	pc, file, line, ok := runtime.Caller(4)
	if !ok {
		file = "?"
		line = 0
	}

	fn := runtime.FuncForPC(pc)
	var fnName string
	if fn != nil {
		fnName = strings.ReplaceAll(fn.Name(), "github.com/0xa1bed0/extver", "")
	}

	return fmt.Sprintf("[%s:%d %s] %s", filepath.Base(file), line, fnName, msg)
}

func (l *Logger) printLog(silent bool, level string, style lipgloss.Style, format string, args ...any) {
	msg := l.formatCaller(format, args...)
	timestamp := time.Now().Format(timestampLayout)

	l.mu.Lock()
	defer l.mu.Unlock()

	componentTag := ""
	if l.component != "" {
		componentTag = fmt.Sprintf("[%s] ", l.component)
	}

	// Full log lines carry no timestamp; TimestampWriter adds it at the destination.
	l.writeFullLogLocked(fmt.Sprintf("[%s] %s%s\n", level, componentTag, msg))

	if !silent {
		line := fmt.Sprintf("[%s] [%s] %s%s", timestamp, level, componentTag, msg)
		fmt.Fprintln(l.out, style.Render(line))
	}
}
