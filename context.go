package refit

import "context"

type contextKey struct {
	name string
}

var callInfoKey = &contextKey{"call_info"}

// CallInfo identifies the API method a request was synthesized for.
type CallInfo struct {
	Method     string // registry name
	HTTPMethod string
	Path       string // path template, before substitution
}

// CallFromContext returns the CallInfo attached by the client. It is
// available to interceptors and transports.
func CallFromContext(ctx context.Context) (*CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey).(*CallInfo)
	return info, ok
}

// NewCallContext attaches info to ctx. Clients do this for every call;
// it is exported for testing interceptors in isolation.
func NewCallContext(ctx context.Context, info *CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey, info)
}
