package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/invoke/command"
)

// Timeout returns middleware that enforces an execution deadline on
// every invocation. A context.WithTimeout wraps the action call; when
// the deadline is exceeded the context is cancelled and the action
// should return context.DeadlineExceeded. Zero disables the deadline.
func Timeout(d time.Duration, logger *slog.Logger) Middleware {
	return func(ctx context.Context, c *command.Command, next Handler) error {
		if d > 0 {
			logger.Debug("invocation deadline set",
				slog.String("command", c.Name()),
				slog.Duration("timeout", d),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
