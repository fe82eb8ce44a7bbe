package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error. Debug forces debug.
	Level string
	// Dir enables a rotating devlevel.log file next to stderr output.
	Dir    string
	Format string
	Debug  bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds the process logger. The returned close func flushes and closes
// the rotating file, if any.
func New(cfg Config) (*log.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	closeFn := func() error { return nil }
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "devlevel.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, fileWriter)
		closeFn = fileWriter.Close
	}

	formatter := log.TextFormatter
	if strings.EqualFold(cfg.Format, "json") {
		formatter = log.JSONFormatter
	}
	l := log.NewWithOptions(out, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "devlevel",
		Formatter:       formatter,
	})
	return l, closeFn, nil
}

func parseLevel(s string) (log.Level, error) {
	if s == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
