package helpers

import (
	"context"
	"log/slog"

	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

// TestLogger discards output but still evaluates info-level calls.
func TestLogger() *slog.Logger {
	return slog.New(logger.NewTestHandler(slog.LevelInfo))
}

// TestCtx returns a context carrying TestLogger.
func TestCtx() context.Context {
	return logger.ToContext(context.Background(), TestLogger())
}
