package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logMu       sync.Mutex
	logLevel              = new(slog.LevelVar)
	logger                = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	annotations           = os.Getenv("GITHUB_ACTIONS") == "true"
	annotateOut io.Writer = os.Stdout
)

// SetDebug switches the logger between info and debug level.
func SetDebug(debug bool) {
	if debug {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(slog.LevelInfo)
	}
}

// SetLogOutput redirects log records and workflow annotations. Used by tests.
func SetLogOutput(logW, annotateW io.Writer, annotate bool) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = slog.New(slog.NewTextHandler(logW, &slog.HandlerOptions{Level: logLevel}))
	annotateOut = annotateW
	annotations = annotate
}

func currentLogger() *slog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	return logger
}

// LogDebug logs a debug message.
func LogDebug(msg string, args ...any) {
	currentLogger().Debug(msg, args...)
}

// LogInfo logs an informational message.
func LogInfo(msg string, args ...any) {
	currentLogger().Info(msg, args...)
}

// LogWarn logs a warning and, inside GitHub Actions, emits a warning annotation.
func LogWarn(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	currentLogger().Warn(msg, args...)
	annotate("warning", msg, err)
}

// LogError logs an error and, inside GitHub Actions, emits an error annotation.
func LogError(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	currentLogger().Error(msg, args...)
	annotate("error", msg, err)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	LogError(msg, err)
	os.Exit(1)
}

func annotate(kind, msg string, err error) {
	logMu.Lock()
	defer logMu.Unlock()
	if !annotations {
		return
	}
	text := msg
	if err != nil {
		text = fmt.Sprintf("%s: %v", msg, err)
	}
	_, _ = fmt.Fprintf(annotateOut, "::%s::%s\n", kind, escapeAnnotation(text))
}

// escapeAnnotation escapes data per the workflow command format.
func escapeAnnotation(s string) string {
	r := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	return r.Replace(s)
}
