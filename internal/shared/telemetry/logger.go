package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
	maxLogAgeDays = 30
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout)
	rotor  *lumberjack.Logger
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "ts"
	zerolog.MessageFieldName = "msg"
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Init configures the level and, when file is set, mirrors output into a rotated log file.
func Init(level, file string) error {
	lvl := zerolog.InfoLevel
	if raw := strings.TrimSpace(level); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)

	file = strings.TrimSpace(file)
	if file == "" {
		SetOutput(os.Stdout)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	lj := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	}
	mu.Lock()
	if rotor != nil {
		_ = rotor.Close()
	}
	rotor = lj
	logger = newLogger(zerolog.MultiLevelWriter(os.Stdout, lj))
	mu.Unlock()
	return nil
}

// SetOutput redirects log lines, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = newLogger(w)
	mu.Unlock()
}

// Close flushes and closes the rotated log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotor == nil {
		return nil
	}
	err := rotor.Close()
	rotor = nil
	logger = newLogger(os.Stdout)
	return err
}

// Logger returns the current structured logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	write(zerolog.DebugLevel, msg, fields)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(zerolog.InfoLevel, msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(zerolog.WarnLevel, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(zerolog.ErrorLevel, msg, fields)
}

func write(level zerolog.Level, msg string, fields map[string]any) {
	l := Logger()
	l.WithLevel(level).Fields(fields).Msg(msg)
}
