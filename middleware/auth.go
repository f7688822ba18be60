package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/broady/refit"
)

// AuthInterceptor sets the Authorization header from src on every request
// passing through it. It is the interceptor form of refit.Config.Auth, for
// sharing one token source between several clients or ordering auth
// relative to other interceptors.
//
// A failing source leaves the request unauthenticated; a canceled context
// stops the call.
func AuthInterceptor(src refit.TokenSource, logger *slog.Logger) refit.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req *refit.Request, next refit.Invoker) (*refit.Response, error) {
		token, err := refit.ResolveToken(ctx, src)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				code := refit.CodeCanceled
				if errors.Is(cerr, context.DeadlineExceeded) {
					code = refit.CodeDeadlineExceeded
				}
				return nil, refit.NewError(code, "abandoned while waiting for auth token").WithCause(cerr)
			}
			logger.WarnContext(ctx, "auth token unavailable, sending without Authorization",
				slog.String("url", req.URL),
				slog.Any("error", err))
			return next(ctx, req)
		}
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		return next(ctx, req)
	}
}
