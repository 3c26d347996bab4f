// Package logger provides logging for orchestration runs.
//
// The logger package offers structured logging of execution progress at
// the task and workflow levels. Implementations are thread-safe and
// support various output destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/sunkencity999/agentic-orchestrator/internal/task"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the behavior executors and handlers log through. Call sites
// skip a nil Logger, and ConsoleLogger's methods return early on a nil
// receiver, so a nil *ConsoleLogger is a valid silent logger.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogTaskStart(t task.Task)
	LogTaskResult(t task.Task)
	LogProgress(completed, total int)
}

// ConsoleLogger logs execution progress to a writer with timestamps and
// thread safety. All output is prefixed with [HH:MM:SS] timestamps for
// tracking execution flow. It supports log level filtering to control
// message verbosity. Color output is automatically enabled for terminal
// output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
	if w == os.Stderr {
		return isatty.IsTerminal(os.Stderr.Fd())
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates
// it. Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", "trace", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", "debug", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", "info", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", "warn", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", "error", message)
}

// logWithLevel writes "[HH:MM:SS] [LEVEL] message" if the level passes the
// filter.
func (cl *ConsoleLogger) logWithLevel(tag, level, message string) {
	if cl == nil || cl.writer == nil || !cl.shouldLog(level) {
		return
	}
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp, cl.colorizeTag(tag), message)
}

func (cl *ConsoleLogger) colorizeTag(tag string) string {
	if !cl.colorOutput {
		return tag
	}
	switch tag {
	case "ERROR":
		return color.RedString(tag)
	case "WARN":
		return color.YellowString(tag)
	case "INFO":
		return color.CyanString(tag)
	default:
		return tag
	}
}

// LogTaskStart logs the dispatch of a task.
func (cl *ConsoleLogger) LogTaskStart(t task.Task) {
	cl.LogInfo(fmt.Sprintf("task %s started: %s [%s]", shortID(t.ID), t.Description, t.Type))
}

// LogTaskResult logs a task reaching a terminal state.
func (cl *ConsoleLogger) LogTaskResult(t task.Task) {
	if cl == nil || cl.writer == nil || !cl.shouldLog("info") {
		return
	}
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	timestamp := time.Now().Format("15:04:05")
	marker := string(t.State)
	if cl.colorOutput {
		switch t.State {
		case task.StateCompleted:
			marker = color.GreenString(marker)
		case task.StateFailed:
			marker = color.RedString(marker)
		case task.StateCancelled, task.StateBlocked:
			marker = color.YellowString(marker)
		}
	}
	line := fmt.Sprintf("[%s] task %s %s: %s", timestamp, shortID(t.ID), marker, t.Description)
	if t.Result != nil && t.Result.Error != "" {
		line += " (" + t.Result.Error + ")"
	}
	fmt.Fprintln(cl.writer, line)
}

// LogProgress logs a completed/total progress line, with a bar when the
// writer is a terminal wide enough to hold one.
func (cl *ConsoleLogger) LogProgress(completed, total int) {
	if cl == nil || cl.writer == nil || !cl.shouldLog("info") || total == 0 {
		return
	}
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	line := fmt.Sprintf("progress: %d/%d", completed, total)
	if f, ok := cl.writer.(*os.File); ok && cl.colorOutput {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width >= 40 {
			barWidth := 20
			filled := barWidth * completed / total
			bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
			line = fmt.Sprintf("progress: [%s] %d/%d", bar, completed, total)
		}
	}
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(cl.writer, "[%s] %s\n", timestamp, line)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
