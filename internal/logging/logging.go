// Package logging configures the process-wide standard logger.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"

	"github.com/orientd/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup points the standard logger at stderr, or at a size-rotated file
// when cfg.File is set. The returned closer releases the file.
func Setup(cfg config.LoggingConfig) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	out := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(out)
	return out
}
