package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/invoke/command"
)

// Logging returns middleware that logs invocation start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, c *command.Command, next Handler) error {
		inv, _ := command.InvocationFromContext(ctx)
		logger.Info("invocation started",
			slog.String("command", c.Name()),
			slog.String("invocation_id", inv.String()),
			slog.String("trigger", c.Context().String()),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("invocation failed",
				slog.String("command", c.Name()),
				slog.String("invocation_id", inv.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("invocation completed",
				slog.String("command", c.Name()),
				slog.String("invocation_id", inv.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
