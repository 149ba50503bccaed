package cli

import (
	"io"
	"log/slog"

	"github.com/nathantilsley/issue-validator/internal/config"
)

// newLogger builds the process logger. Output goes to w so that stdout
// stays free for workflow commands and reports.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}
