package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config holds the logger configuration. FilePath is specific to this system: the
// orchestrator already writes a per-request debug log under logs/ (§4.8/§7), so the
// structured logger's own "file" output target defaults into that same directory
// instead of the process's working directory.
type Config struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// NewLogger initializes a new slog logger based on the provided configuration, tagged
// with the "service" attribute so that multi-service log aggregation (e.g. a shared
// logs/ directory, or a future sidecar) can distinguish repodigest's own lines from the
// per-request digest debug logs the orchestrator writes alongside them.
func NewLogger(cfg Config, output io.Writer) *slog.Logger {
	var handler slog.Handler

	if output == nil {
		switch cfg.Output {
		case "stdout":
			output = os.Stdout
		case "stderr":
			output = os.Stderr
		case "file":
			filePath := cfg.FilePath
			if filePath == "" {
				filePath = "logs/repodigest.log"
			}
			if dir := filepath.Dir(filePath); dir != "." {
				_ = os.MkdirAll(dir, 0o755)
			}
			file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err != nil {
				fmt.Printf("failed to open log file %s: %v\n", filePath, err)
				output = os.Stdout
			} else {
				output = file
			}
		default:
			output = os.Stdout
		}
	}

	level := new(slog.Level)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = new(slog.Level)
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: *level <= slog.LevelDebug,
	}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text":
		fallthrough
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler).With("service", "repodigest")
}
