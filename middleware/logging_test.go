package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/broady/refit"
)

func callContext() context.Context {
	return refit.NewCallContext(context.Background(), &refit.CallInfo{
		Method:     "GetTodo",
		HTTPMethod: "GET",
		Path:       "/todos/{id}",
	})
}

func TestLoggingInterceptor_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	interceptor := LoggingInterceptor(logger)

	next := func(ctx context.Context, req *refit.Request) (*refit.Response, error) {
		return &refit.Response{StatusCode: 201}, nil
	}

	res, err := interceptor(callContext(), &refit.Request{Method: "GET", URL: "https://api.test/todos/1"}, next)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if res.StatusCode != 201 {
		t.Errorf("expected 201, got %d", res.StatusCode)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request started") {
		t.Error("expected 'request started' in log output")
	}
	if !strings.Contains(logOutput, "request completed") {
		t.Error("expected 'request completed' in log output")
	}
	if !strings.Contains(logOutput, "GetTodo") {
		t.Error("expected method name in log output")
	}
	if !strings.Contains(logOutput, `"status":201`) {
		t.Error("expected status in log output")
	}
}

func TestLoggingInterceptor_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	interceptor := LoggingInterceptor(logger)

	expectedErr := errors.New("connection reset")
	next := func(ctx context.Context, req *refit.Request) (*refit.Response, error) {
		return nil, expectedErr
	}

	_, err := interceptor(callContext(), &refit.Request{Method: "GET"}, next)

	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error to pass through, got %v", err)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request failed") {
		t.Error("expected 'request failed' in log output")
	}
	if !strings.Contains(logOutput, "connection reset") {
		t.Error("expected error message in log output")
	}
}

func TestLoggingInterceptor_NilResponse(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingInterceptor(slog.New(slog.NewTextHandler(&buf, nil)))

	next := func(ctx context.Context, req *refit.Request) (*refit.Response, error) {
		return nil, nil
	}

	if _, err := interceptor(context.Background(), &refit.Request{}, next); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "status=0") {
		t.Errorf("expected status=0, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), "method=unknown") {
		t.Errorf("expected unknown method without call info, got %s", buf.String())
	}
}

func TestLoggingInterceptor_NilLogger(t *testing.T) {
	interceptor := LoggingInterceptor(nil)

	next := func(ctx context.Context, req *refit.Request) (*refit.Response, error) {
		return &refit.Response{}, nil
	}

	if _, err := interceptor(callContext(), &refit.Request{}, next); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
