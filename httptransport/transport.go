// Package httptransport executes refit requests with net/http.
//
// Bodies are sent as-is when they are []byte, string or io.Reader and as
// JSON otherwise. JSON responses are decoded into any; other responses are
// returned as []byte. Non-2xx responses are reported as *StatusError, and
// responses over the size limit as *http.MaxBytesError.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/broady/refit"
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Transport implements refit.Transport.
type Transport struct {
	client          *http.Client
	maxResponseSize int64
}

// New returns a Transport using a client with a 30 second timeout.
func New() *Transport {
	return &Transport{
		client:          &http.Client{Timeout: 30 * time.Second},
		maxResponseSize: 10 << 20, // 10MB default
	}
}

// WithHTTPClient sets the underlying HTTP client.
func (t *Transport) WithHTTPClient(c *http.Client) *Transport {
	t.client = c
	return t
}

// WithMaxResponseSize limits how many bytes of a response body are read.
// A value of 0 means no limit.
func (t *Transport) WithMaxResponseSize(n int64) *Transport {
	t.maxResponseSize = n
	return t
}

// Execute sends req and decodes the response.
func (t *Transport) Execute(ctx context.Context, req *refit.Request) (*refit.Response, error) {
	hreq, err := t.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var r io.ReadCloser = resp.Body
	if t.maxResponseSize > 0 {
		r = http.MaxBytesReader(nil, resp.Body, t.maxResponseSize)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Error bodies that fail to decode are kept raw.
		body, err := decodeBody(contentType, raw)
		if err != nil {
			body = raw
		}
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
		}
	}

	body, err := decodeBody(contentType, raw)
	if err != nil {
		return nil, err
	}
	return &refit.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (t *Transport) newRequest(ctx context.Context, req *refit.Request) (*http.Request, error) {
	u := req.URL
	if q := req.Query.Encode(); q != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + q
	}

	bodyReader, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range req.Header {
		hreq.Header[k] = append([]string(nil), vs...)
	}
	if contentType != "" && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	if hreq.Header.Get("Accept") == "" {
		hreq.Header.Set("Accept", "application/json")
	}
	return hreq, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case string:
		return strings.NewReader(b), "text/plain; charset=utf-8", nil
	case io.Reader:
		return b, "application/octet-stream", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func decodeBody(contentType string, raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt != "application/json" && !strings.HasSuffix(mt, "+json") {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return v, nil
}
