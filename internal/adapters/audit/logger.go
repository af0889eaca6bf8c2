// Package audit writes the per-publication audit trail consumed by
// operators when a destination misbehaves.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends one line per event to a log file and mirrors the
// event to the service logger. Line shape:
//
//	[2026-01-02T15:04:05Z] [SUCCESS] [msg-1] [INSTAGRAM] published | Data: {"id":"123"}
type FileLogger struct {
	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
	nowFn  func() time.Time
}

func NewFileLogger(path string, logger *slog.Logger) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLogger{file: file, logger: logger, nowFn: time.Now}, nil
}

func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func (l *FileLogger) Info(messageID, platform, msg string, data any) {
	l.write("INFO", slog.LevelInfo, messageID, platform, msg, data)
}

func (l *FileLogger) Success(messageID, platform, msg string, data any) {
	l.write("SUCCESS", slog.LevelInfo, messageID, platform, msg, data)
}

func (l *FileLogger) Warning(messageID, platform, msg string, data any) {
	l.write("WARNING", slog.LevelWarn, messageID, platform, msg, data)
}

func (l *FileLogger) Error(messageID, platform, msg string, data any) {
	l.write("ERROR", slog.LevelError, messageID, platform, msg, data)
}

func (l *FileLogger) write(level string, slogLevel slog.Level, messageID, platform, msg string, data any) {
	line := fmt.Sprintf("[%s] [%s] [%s] [%s] %s",
		l.nowFn().UTC().Format(time.RFC3339), level, messageID, platform, msg)
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			line += " | Data: " + string(raw)
		}
	}

	l.mu.Lock()
	_, writeErr := fmt.Fprintln(l.file, line)
	l.mu.Unlock()
	if writeErr != nil {
		l.logger.Error("audit log write failed", "error", writeErr)
	}

	l.logger.Log(context.Background(), slogLevel, msg,
		"message_id", messageID,
		"platform", platform,
		"audit_level", level,
	)
}
