// Package middleware provides handshake interceptors for common concerns.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/handshake"
)

// Logging creates an interceptor that logs each handshake using slog,
// including the caller, the service and how long verification took.
func Logging(logger *slog.Logger) handshake.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, local rostrait.Contract, remote handshake.Header, next handshake.VerifyFunc) error {
		start := time.Now()
		err := next(ctx, local, remote)
		duration := time.Since(start)

		attrs := []any{
			slog.String("service", string(local.Name)),
			slog.String("callerid", remote.CallerID),
			slog.Duration("duration", duration),
		}
		if remote.Probe {
			attrs = append(attrs, slog.Bool("probe", true))
		}
		if err != nil {
			logger.ErrorContext(ctx, "handshake rejected", append(attrs, slog.Any("error", err))...)
		} else {
			logger.InfoContext(ctx, "handshake accepted", attrs...)
		}
		return err
	}
}
