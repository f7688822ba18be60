package refit

import "context"

// Invoker executes a synthesized request. The innermost Invoker is the
// client's Transport.
type Invoker func(ctx context.Context, req *Request) (*Response, error)

// Interceptor wraps request execution, after synthesis and auth:
//
//	func timing(ctx context.Context, req *refit.Request, next refit.Invoker) (*refit.Response, error) {
//	    start := time.Now()
//	    res, err := next(ctx, req)
//	    log.Printf("%s %s took %v", req.Method, req.URL, time.Since(start))
//	    return res, err
//	}
//
// Interceptors can:
//   - Inspect or modify the request before calling next
//   - Inspect the response or error after calling next
//   - Short-circuit by returning without calling next
//
// The CallInfo of the call is available via CallFromContext.
type Interceptor func(ctx context.Context, req *Request, next Invoker) (*Response, error)

// chainInterceptors combines interceptors around final.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []Interceptor, final Invoker) Invoker {
	chain := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		current := interceptors[i]
		next := chain
		chain = func(ctx context.Context, req *Request) (*Response, error) {
			return current(ctx, req, next)
		}
	}
	return chain
}
