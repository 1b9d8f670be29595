package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global structured logger
	Log *slog.Logger
	// logWriter is the rotating log writer
	logWriter *lumberjack.Logger
	// LogPath is the path to the current log file
	LogPath string
	// debugEnabled tracks if debug mode is active
	debugEnabled bool
)

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// slogLevel maps a LogLevel onto the slog equivalent.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global logger with the specified level and path.
// The directory of logPath is created if needed.
func InitLogger(level LogLevel, logPath string) {
	debugEnabled = level == LevelDebug

	_ = os.MkdirAll(filepath.Dir(logPath), 0755)
	LogPath = logPath

	// Use lumberjack for log rotation
	logWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}

	initWithWriter(level, logWriter)
}

// InitWithWriter initializes the global logger writing JSON records to w.
func InitWithWriter(level LogLevel, w io.Writer) {
	debugEnabled = level == LevelDebug
	LogPath = ""
	initWithWriter(level, w)
}

func initWithWriter(level LogLevel, w io.Writer) {
	Log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()}))
	slog.SetDefault(Log)
}

// Close closes the log file
func Close() {
	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
}

// getLogger returns the global logger, or the default slog logger if not initialized.
func getLogger() *slog.Logger {
	if Log != nil {
		return Log
	}
	return slog.Default()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	getLogger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	getLogger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	getLogger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// With creates a new logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// IsDebugEnabled returns true if debug mode is active.
func IsDebugEnabled() bool {
	return debugEnabled
}
