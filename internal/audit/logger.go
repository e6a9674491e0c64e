// Package audit records orientation constraint writes as append-only JSON
// lines. Output rotates by size.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/lumberjack"

	"github.com/orientd/internal/auth"
	"github.com/orientd/internal/config"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"ts"`
	User      string                 `json:"user"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Status    int                    `json:"status"`
}

// Logger implements the audit logging functionality.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      io.WriteCloser
}

// NewLogger creates a new audit logger writing to cfg.File.
func NewLogger(cfg config.AuditConfig) (*Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("audit file path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	return &Logger{
		filePath: cfg.File,
		out: &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		},
	}, nil
}

// LogAction records one orientation syscall and its resulting status.
func (l *Logger) LogAction(ctx context.Context, action string, params map[string]interface{}, status int) {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		User:      userFromContext(ctx),
		Action:    action,
		Params:    params,
		Status:    status,
	}

	l.writeEntry(entry)
}

// writeEntry writes an audit entry to the log file.
func (l *Logger) writeEntry(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		log.Printf("Failed to marshal audit entry: %v", err)
		return
	}

	if _, err := l.out.Write(append(jsonData, '\n')); err != nil {
		log.Printf("Failed to write audit entry: %v", err)
	}
}

// userFromContext returns the token subject, or "anonymous" when auth is off.
func userFromContext(ctx context.Context) string {
	if claims := auth.ClaimsFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return "anonymous"
}

// FilePath returns the path to the audit log file.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Close closes the audit logger and its file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out != nil {
		err := l.out.Close()
		l.out = nil
		return err
	}
	return nil
}
