package refit

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// QueryParam is one key=value pair of a query string.
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams is an ordered multi-map of query parameters.
type QueryParams []QueryParam

// Add appends a pair, keeping insertion order.
func (q *QueryParams) Add(key, value string) {
	*q = append(*q, QueryParam{Key: key, Value: value})
}

// Get returns the first value for key.
func (q QueryParams) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Values converts q to url.Values. Order between keys is lost.
func (q QueryParams) Values() url.Values {
	v := make(url.Values, len(q))
	for _, p := range q {
		v.Add(p.Key, p.Value)
	}
	return v
}

// Encode renders q in insertion order, unlike url.Values.Encode which sorts.
func (q QueryParams) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Request is the fully resolved description of one call. It is built per
// call and not retained after the transport returns.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Query  QueryParams
	Body   any // nil means no body
}

// Response is what a Transport produced. refit never inspects it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any
}

// Transport executes synthesized requests.
type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
