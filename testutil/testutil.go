// Package testutil provides a recording refit.Transport and assertion
// helpers for tests of code built on refit.
package testutil

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/broady/refit"
)

// Transport records every request it executes and answers with a canned
// response. It is safe for concurrent use.
type Transport struct {
	mu       sync.Mutex
	requests []*refit.Request
	respond  func(*refit.Request) (*refit.Response, error)
}

// NewTransport returns a Transport answering 200 with a nil body.
func NewTransport() *Transport {
	return &Transport{}
}

// RespondWith sets the function producing responses.
func (t *Transport) RespondWith(fn func(*refit.Request) (*refit.Response, error)) *Transport {
	t.mu.Lock()
	t.respond = fn
	t.mu.Unlock()
	return t
}

// RespondBody answers every request with 200 and body.
func (t *Transport) RespondBody(body any) *Transport {
	return t.RespondWith(func(*refit.Request) (*refit.Response, error) {
		return &refit.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body}, nil
	})
}

// Fail answers every request with err.
func (t *Transport) Fail(err error) *Transport {
	return t.RespondWith(func(*refit.Request) (*refit.Response, error) {
		return nil, err
	})
}

// Execute implements refit.Transport.
func (t *Transport) Execute(ctx context.Context, req *refit.Request) (*refit.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	respond := t.respond
	t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if respond == nil {
		return &refit.Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
	}
	return respond(req)
}

// Requests returns the executed requests in order.
func (t *Transport) Requests() []*refit.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*refit.Request(nil), t.requests...)
}

// Last returns the most recent request, failing the test if there is none.
func (t *Transport) Last(tb testing.TB) *refit.Request {
	tb.Helper()
	reqs := t.Requests()
	if len(reqs) == 0 {
		tb.Fatal("expected at least one request")
	}
	return reqs[len(reqs)-1]
}

// AssertNoRequests fails if anything reached the transport.
func (t *Transport) AssertNoRequests(tb testing.TB) {
	tb.Helper()
	if n := len(t.Requests()); n != 0 {
		tb.Errorf("expected no requests, got %d", n)
	}
}

// AssertHeader checks that a request header has the expected value.
func AssertHeader(tb testing.TB, req *refit.Request, key, expectedValue string) {
	tb.Helper()
	actual := req.Header.Get(key)
	if actual != expectedValue {
		tb.Errorf("expected header %s=%s, got %s", key, expectedValue, actual)
	}
}

// AssertNoHeader checks that a request header is absent.
func AssertNoHeader(tb testing.TB, req *refit.Request, key string) {
	tb.Helper()
	if vs, ok := req.Header[http.CanonicalHeaderKey(key)]; ok {
		tb.Errorf("expected no %s header, got %q", key, vs)
	}
}

// AssertURL checks the request URL, excluding the query.
func AssertURL(tb testing.TB, req *refit.Request, expected string) {
	tb.Helper()
	if req.URL != expected {
		tb.Errorf("expected URL %s, got %s", expected, req.URL)
	}
}

// AssertCode checks that err carries the expected refit error code.
func AssertCode(tb testing.TB, err error, expected refit.ErrorCode) {
	tb.Helper()
	if err == nil {
		tb.Fatalf("expected error with code %s, got nil", expected)
	}
	if code := refit.CodeOf(err); code != expected {
		tb.Errorf("expected error code %s, got %q (%v)", expected, code, err)
	}
}
