package refit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
)

type tokenKind int

const (
	tokenNone tokenKind = iota
	tokenImmediate
	tokenDeferred
	tokenStream
)

// Token is the result of a TokenSource. It is one of three shapes:
// an immediate value, a deferred value resolved once, or a channel of
// which only the first value is used.
type Token struct {
	kind     tokenKind
	value    string
	deferred func(context.Context) (string, error)
	stream   <-chan string
}

// Immediate returns a token that is already known. An empty string means
// no token.
func Immediate(token string) Token {
	return Token{kind: tokenImmediate, value: token}
}

// Deferred returns a token resolved by calling fn once, asynchronously.
// fn should honor ctx.
func Deferred(fn func(ctx context.Context) (string, error)) Token {
	return Token{kind: tokenDeferred, deferred: fn}
}

// Stream returns a token taken from the first value received on ch.
// Later values are never read. A channel closed before sending means no
// token.
func Stream(ch <-chan string) Token {
	return Token{kind: tokenStream, stream: ch}
}

// TokenSource produces the Authorization value for a call. It is invoked
// once per call.
type TokenSource func() (Token, error)

// ErrTokenSource wraps failures of the token source itself.
var ErrTokenSource = errors.New("refit: token source failed")

// ResolveToken invokes src and waits for its first value. An empty result
// with a nil error means the source produced no token.
//
// Source failures (an error, a panic, or a deferred rejection) are reported
// wrapped in ErrTokenSource. If ctx ends first, ctx.Err() is returned.
func ResolveToken(ctx context.Context, src TokenSource) (string, error) {
	tok, err := invokeSource(src)
	if err != nil {
		return "", err
	}

	switch tok.kind {
	case tokenImmediate:
		return tok.value, nil

	case tokenDeferred:
		type result struct {
			token string
			err   error
		}
		ch := make(chan result, 1)
		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					ch <- result{err: fmt.Errorf("%w: panic: %v", ErrTokenSource, rec)}
				}
			}()
			t, err := tok.deferred(ctx)
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrTokenSource, err)
			}
			ch <- result{t, err}
		}()
		select {
		case r := <-ch:
			return r.token, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}

	case tokenStream:
		if tok.stream == nil {
			return "", nil
		}
		select {
		case t := <-tok.stream:
			return t, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", nil
}

func invokeSource(src TokenSource) (tok Token, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTokenSource, rec)
		}
	}()
	tok, err = src()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrTokenSource, err)
	}
	return tok, nil
}

// SharedToken returns a TokenSource whose deferred fetch is shared by all
// calls that overlap in time. Nothing is kept once the fetch completes.
//
// The fetch runs detached from any single caller's cancellation; each
// caller still stops waiting when its own context ends.
func SharedToken(fetch func(ctx context.Context) (string, error)) TokenSource {
	var g singleflight.Group
	return func() (Token, error) {
		return Deferred(func(ctx context.Context) (string, error) {
			ch := g.DoChan("token", func() (any, error) {
				return fetch(context.WithoutCancel(ctx))
			})
			select {
			case r := <-ch:
				if r.Err != nil {
					return "", r.Err
				}
				return r.Val.(string), nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}), nil
	}
}
