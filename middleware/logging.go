package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/broady/refit"
)

// LoggingInterceptor creates an interceptor that logs calls using slog.
// It logs the start and end of each call, including duration and error status.
func LoggingInterceptor(logger *slog.Logger) refit.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req *refit.Request, next refit.Invoker) (*refit.Response, error) {
		start := time.Now()

		method := "unknown"
		if info, ok := refit.CallFromContext(ctx); ok {
			method = info.Method
		}

		logger.InfoContext(ctx, "request started",
			slog.String("method", method),
			slog.String("http_method", req.Method),
			slog.String("url", req.URL),
		)

		res, err := next(ctx, req)
		duration := time.Since(start)

		if err != nil {
			logger.ErrorContext(ctx, "request failed",
				slog.String("method", method),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			status := 0
			if res != nil {
				status = res.StatusCode
			}
			logger.InfoContext(ctx, "request completed",
				slog.String("method", method),
				slog.Int("status", status),
				slog.Duration("duration", duration),
			)
		}

		return res, err
	}
}
