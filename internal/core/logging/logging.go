// Package logging builds the zap loggers used by formrel commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a logger for level ("debug", "info", ...) and format
// ("json" for production output, "text" for console output). Logs go to
// stderr so command output on stdout stays machine readable.
func New(level, format string) (*zap.Logger, error) {
	atom, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "text", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or text)", format)
	}
	cfg.Level = atom
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
