package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// Level orders log severities; messages below the configured level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Options configures the process-wide logger.
type Options struct {
	File       string // empty disables file output
	MaxSizeMB  int
	MaxAgeDays int
	Level      string
	Quiet      bool // suppress stderr output
}

var (
	mu       sync.RWMutex
	minLevel = LevelInfo
	rotator  *lumberjack.Logger
	logger   = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

// Init points the logger at stderr and, when configured, a rotated log file.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		if rotator != nil {
			_ = rotator.Close()
		}
		rotator = &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.MaxSizeMB, // megabytes
			MaxAge:   opts.MaxAgeDays, // days
		}
		writers = append(writers, rotator)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	logger = log.New(io.MultiWriter(writers...), "", log.Ldate|log.Ltime|log.Lmicroseconds)
	minLevel = ParseLevel(opts.Level)
	return nil
}

// Close flushes and closes the rotated log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func write(level Level, color, tag, category string, content []interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if level < minLevel {
		return
	}
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[%s][%s]%s", color, tag, category, ColorReset)
	logger.Printf("%s: %s", coloredCategory, message)
}

func Info(category string, content ...interface{}) {
	write(LevelInfo, ColorGreen, "INFO", category, content)
}

func Error(category string, content ...interface{}) {
	write(LevelError, ColorRed, "ERROR", category, content)
}

func Warn(category string, content ...interface{}) {
	write(LevelWarn, ColorYellow, "WARN", category, content)
}

func Debug(category string, content ...interface{}) {
	write(LevelDebug, ColorBlue, "DEBUG", category, content)
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
