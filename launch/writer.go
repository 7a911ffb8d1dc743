package launch

import (
	"context"
	"log/slog"
	"strings"
)

// newLogWriter creates a writer that forwards each line of child
// process output to the structured logger.
func newLogWriter(logger *slog.Logger, level slog.Level, source string) *logWriter {
	return &logWriter{
		logger: logger,
		level:  level,
		source: source,
	}
}

type logWriter struct {
	logger *slog.Logger
	level  slog.Level
	source string
}

func (lw *logWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for _, line := range strings.Split(string(p), "\n") {
		if line != "" {
			lw.logger.Log(context.Background(), lw.level, "Server output", "source", lw.source, "output", line)
		}
	}
	return len(p), nil
}
