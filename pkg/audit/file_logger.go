package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends entries as JSON lines to an audit log file, rotating
// by size and keeping a bounded number of rotated files.
type FileLogger struct {
	basePath string
	file     *os.File
	mu       sync.Mutex
	encoder  *json.Encoder
	rotate   bool
	maxSize  int64
	maxFiles int
}

// FileLoggerConfig configures the file logger.
type FileLoggerConfig struct {
	BasePath string // Directory for audit logs
	Rotate   bool   // Enable size-based rotation
	MaxSize  int64  // Max file size in bytes before rotation (default 20MB)
	MaxFiles int    // Rotated files to keep (default 14)
}

// DefaultFileLoggerConfig returns the default configuration.
func DefaultFileLoggerConfig(basePath string) FileLoggerConfig {
	return FileLoggerConfig{
		BasePath: basePath,
		Rotate:   true,
		MaxSize:  20 * 1024 * 1024,
		MaxFiles: 14,
	}
}

// NewFileLogger creates a file-backed audit logger.
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	logger := &FileLogger{
		basePath: config.BasePath,
		rotate:   config.Rotate,
		maxSize:  config.MaxSize,
		maxFiles: config.MaxFiles,
	}
	if logger.maxSize == 0 {
		logger.maxSize = 20 * 1024 * 1024
	}
	if logger.maxFiles == 0 {
		logger.maxFiles = 14
	}

	if err := logger.openLogFile(); err != nil {
		return nil, err
	}
	return logger, nil
}

func (l *FileLogger) currentPath() string {
	return filepath.Join(l.basePath, "actions.log")
}

func (l *FileLogger) openLogFile() error {
	filename := l.currentPath()

	if l.rotate {
		if info, err := os.Stat(filename); err == nil && info.Size() >= l.maxSize {
			if err := l.rotateFile(); err != nil {
				return fmt.Errorf("failed to rotate audit log: %w", err)
			}
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}

	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

func (l *FileLogger) rotateFile() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	timestamp := time.Now().Format("2006-01-02-15-04-05")
	rotated := filepath.Join(l.basePath, fmt.Sprintf("actions-%s.log", timestamp))
	if err := os.Rename(l.currentPath(), rotated); err != nil {
		return err
	}

	if err := l.cleanupOldFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to cleanup rotated audit logs: %v\n", err)
	}
	return nil
}

func (l *FileLogger) cleanupOldFiles() error {
	files, err := filepath.Glob(filepath.Join(l.basePath, "actions-*.log"))
	if err != nil {
		return err
	}

	// Rotated names sort lexicographically by timestamp, oldest first
	if len(files) > l.maxFiles {
		for _, file := range files[:len(files)-l.maxFiles] {
			if err := os.Remove(file); err != nil {
				fmt.Fprintf(os.Stderr, "failed to remove old audit log %s: %v\n", file, err)
			}
		}
	}
	return nil
}

// Record appends one entry to the file.
func (l *FileLogger) Record(ctx context.Context, entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotate && l.file != nil {
		if info, err := l.file.Stat(); err == nil && info.Size() >= l.maxSize {
			if err := l.openLogFile(); err != nil {
				return err
			}
		}
	}

	if err := l.encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Search scans the current log file for entries matching the filter.
func (l *FileLogger) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	file, err := os.Open(l.currentPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var matched []*Entry
	skipped := 0
	decoder := json.NewDecoder(file)
	for {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode audit entry: %w", err)
		}
		if !matches(&entry, filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		matched = append(matched, &entry)
		if filter.Limit > 0 && len(matched) >= filter.Limit {
			break
		}
	}
	return matched, nil
}

func matches(e *Entry, f SearchFilter) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.ActorEmail != "" && (e.Actor == nil || e.Actor.Email != f.ActorEmail) {
		return false
	}
	if f.TargetType != "" && (e.Target == nil || e.Target.Type != f.TargetType) {
		return false
	}
	if f.TargetID != "" && (e.Target == nil || e.Target.ID != f.TargetID) {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}
