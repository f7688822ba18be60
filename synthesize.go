package refit

import (
	"encoding"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/gorilla/schema"
)

// queryEncoder expands struct-valued query arguments into one pair per
// field, named by the `schema` struct tag.
var queryEncoder = schema.NewEncoder()

// Synthesize builds the request for one call of m. It covers URL
// templating, query assembly, header layering and body selection; auth is
// applied by the Client afterwards.
//
// A {name} left in the path after substitution fails with an
// invalid_argument *Error naming the method and placeholder.
func Synthesize(m *MethodDescriptor, baseURL string, globalHeaders map[string]string, args []any) (*Request, error) {
	params := m.SortedParams()

	// URL templating.
	path := m.Path
	for _, p := range params {
		if p.Role != RolePath {
			continue
		}
		var s string
		if v, ok := argAt(args, p.Index); ok {
			s = stringValue(v)
		}
		path = strings.ReplaceAll(path, "{"+p.Key()+"}", encodeComponent(s))
	}

	// Query assembly, in index order.
	var query QueryParams
	for _, p := range params {
		if p.Role != RoleQuery {
			continue
		}
		v, ok := argAt(args, p.Index)
		if !ok {
			continue
		}
		if err := appendQuery(&query, p.Key(), v); err != nil {
			return nil, Errorf(CodeInvalidArgument, "%s: query parameter %q: %v", m.Name, p.Key(), err).
				WithDetail("method", m.Name).
				WithDetail("index", p.Index).
				WithCause(err)
		}
	}

	// Headers: global, then per-parameter, then the method's own.
	header := make(http.Header, len(globalHeaders)+len(m.Headers))
	for k, v := range globalHeaders {
		header.Set(k, v)
	}
	for _, p := range params {
		if p.Role != RoleHeader {
			continue
		}
		if v, ok := argAt(args, p.Index); ok {
			header.Set(p.Key(), stringValue(v))
		}
	}
	for k, v := range m.Headers {
		header.Set(k, v)
	}

	req := &Request{
		Method: m.HTTPMethod,
		URL:    baseURL + path,
		Header: header,
		Query:  query,
		Body:   selectBody(m, args),
	}

	if left := placeholders(path); len(left) > 0 {
		return nil, Errorf(CodeInvalidArgument, "%s: unresolved path placeholder {%s} in %q", m.Name, left[0], m.Path).
			WithDetail("method", m.Name).
			WithDetail("placeholder", left[0])
	}
	return req, nil
}

// selectBody returns the explicit body argument, or for POST, PUT and PATCH
// the first argument no other role claims.
func selectBody(m *MethodDescriptor, args []any) any {
	if p, ok := m.bodyParam(); ok {
		if p.Index < len(args) {
			return args[p.Index]
		}
		return nil
	}
	switch m.HTTPMethod {
	case "POST", "PUT", "PATCH":
	default:
		return nil
	}
	for i, a := range args {
		if _, claimed := m.Params[i]; !claimed {
			return a
		}
	}
	return nil
}

// argAt returns args[i] with pointers followed, and false when the argument
// is missing or nil.
func argAt(args []any, i int) (any, bool) {
	if i >= len(args) {
		return nil, false
	}
	v := args[i]
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		if isTextual(rv.Interface()) {
			break
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil, false
		}
	}
	return rv.Interface(), true
}

func isTextual(v any) bool {
	switch v.(type) {
	case fmt.Stringer, encoding.TextMarshaler:
		return true
	}
	return false
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case encoding.TextMarshaler:
		if b, err := x.MarshalText(); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// appendQuery adds v under key. Slices repeat the key once per element and
// structs expand into their fields.
func appendQuery(q *QueryParams, key string, v any) error {
	if isTextual(v) {
		q.Add(key, stringValue(v))
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, ok := v.([]byte); ok {
			break
		}
		for i := 0; i < rv.Len(); i++ {
			if e, ok := argAt([]any{rv.Index(i).Interface()}, 0); ok {
				q.Add(key, stringValue(e))
			}
		}
		return nil
	case reflect.Struct:
		values := map[string][]string{}
		if err := queryEncoder.Encode(v, values); err != nil {
			return err
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			for _, s := range values[k] {
				q.Add(k, s)
			}
		}
		return nil
	}
	q.Add(key, stringValue(v))
	return nil
}

// componentUnescaper undoes the escapes url.QueryEscape applies beyond
// those of JavaScript's encodeURIComponent.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s for use inside a single path segment,
// leaving A-Z a-z 0-9 and -_.!~*'() as is.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
