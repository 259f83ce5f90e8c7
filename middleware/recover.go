package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/invoke/command"
)

// Recover returns middleware that recovers from panics in the action
// chain. Panics are converted to errors and logged with a stack trace,
// so a misbehaving command cannot take down the domain loop it runs on.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, c *command.Command, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("command action panicked",
					slog.String("command", c.Name()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in command %s: %v", c.Name(), r)
			}
		}()
		return next(ctx)
	}
}
