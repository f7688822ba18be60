package refit

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/stoewer/go-strcase"
)

// Func is the callable generated for one registered method. Arguments are
// positional, matching the indexes used when the method was defined.
type Func func(ctx context.Context, args ...any) (*Response, error)

// Client turns registered methods into requests executed by a Transport.
//
// Only names registered in the Registry get a Func; there is no way to call
// an unregistered name. The With* methods must be called before the client
// is used.
type Client struct {
	registry     *Registry
	transport    Transport
	config       Config
	logger       *slog.Logger
	interceptors []Interceptor
	validateBody bool
	methods      map[string]Func
}

// NewClient validates cfg, freezes reg and builds one Func per registered
// method.
func NewClient(reg *Registry, transport Transport, cfg Config) (*Client, error) {
	if reg == nil {
		return nil, NewError(CodeInvalidArgument, "registry is required")
	}
	if transport == nil {
		return nil, NewError(CodeInvalidArgument, "transport is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg.Freeze()
	c := &Client{
		registry:  reg,
		transport: transport,
		config:    cfg.clone(),
		methods:   make(map[string]Func),
	}
	for _, name := range reg.Names() {
		desc, _ := reg.Lookup(name)
		c.methods[name] = func(ctx context.Context, args ...any) (*Response, error) {
			return c.dispatch(ctx, desc, args)
		}
	}
	return c, nil
}

// WithInterceptor adds an interceptor around the transport.
// Interceptors run in the order they were added.
func (c *Client) WithInterceptor(i Interceptor) *Client {
	c.interceptors = append(c.interceptors, i)
	return c
}

// WithLogger sets a custom logger for the client.
// If not set, slog.Default() will be used.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// WithBodyValidation validates struct bodies with their `validate` tags
// before they are sent.
func (c *Client) WithBodyValidation() *Client {
	c.validateBody = true
	return c
}

// Method returns the Func for a registered method.
func (c *Client) Method(name string) (Func, bool) {
	f, ok := c.methods[name]
	return f, ok
}

// Methods returns all generated Funcs keyed by method name.
func (c *Client) Methods() map[string]Func {
	out := make(map[string]Func, len(c.methods))
	for k, v := range c.methods {
		out[k] = v
	}
	return out
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c *Client) dispatch(ctx context.Context, desc *MethodDescriptor, args []any) (*Response, error) {
	req, err := Synthesize(desc, c.config.BaseURL, c.config.GlobalHeaders, args)
	if err != nil {
		return nil, err
	}
	if c.validateBody {
		if err := validateBody(desc.Name, req.Body); err != nil {
			return nil, err
		}
	}

	ctx = NewCallContext(ctx, &CallInfo{
		Method:     desc.Name,
		HTTPMethod: desc.HTTPMethod,
		Path:       desc.Path,
	})

	if c.config.Auth != nil {
		token, err := ResolveToken(ctx, c.config.Auth)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, contextError(desc.Name, ctx.Err())
		case err != nil:
			c.log().WarnContext(ctx, "auth token unavailable, sending without Authorization",
				slog.String("method", desc.Name),
				slog.Any("error", err))
		case token != "":
			req.Header.Set("Authorization", token)
		}
	}

	c.log().DebugContext(ctx, "dispatching request",
		slog.String("method", desc.Name),
		slog.String("http_method", req.Method),
		slog.String("url", req.URL))

	return chainInterceptors(c.interceptors, c.transport.Execute)(ctx, req)
}

func validateBody(method string, body any) error {
	if body == nil {
		return nil
	}
	rv := reflect.ValueOf(body)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(body); err != nil {
		if verr := validationError(method, err); verr != nil {
			return verr
		}
		return Errorf(CodeInvalidArgument, "%s: %v", method, err).WithCause(err)
	}
	return nil
}

var (
	contextType  = reflect.TypeFor[context.Context]()
	errorType    = reflect.TypeFor[error]()
	responseType = reflect.TypeFor[*Response]()
	anyType      = reflect.TypeFor[any]()
)

// Bind fills the func-typed fields of the struct pointed to by ptr with
// calls to registered methods:
//
//	type TodoAPI struct {
//	    Get    func(ctx context.Context, id int) (*refit.Response, error)
//	    Create func(ctx context.Context, todo Todo) (any, error) `refit:"create"`
//	}
//
// A field binds to the method named by its `refit` tag, else to its own
// name, else to its lowerCamelCase name. `refit:"-"` skips the field.
// The first parameter must be a context.Context; the results must be
// (*Response, error) or (any, error), the latter yielding Response.Body.
//
// Every func field must match a registered method; Bind fails otherwise.
func (c *Client) Bind(ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return Errorf(CodeInvalidArgument, "bind: want non-nil pointer to struct, got %T", ptr)
	}
	sv := rv.Elem()
	st := sv.Type()

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if field.Type.Kind() != reflect.Func || !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("refit")
		if tag == "-" {
			continue
		}
		fn, name, ok := c.resolveField(field.Name, tag)
		if !ok {
			return Errorf(CodeNotFound, "bind %s.%s: no registered method", st.Name(), field.Name).
				WithDetail("field", field.Name)
		}
		if err := checkSignature(field.Type); err != nil {
			return Errorf(CodeInvalidArgument, "bind %s.%s (%s): %v", st.Name(), field.Name, name, err).
				WithDetail("field", field.Name).
				WithDetail("method", name)
		}
		sv.Field(i).Set(reflect.MakeFunc(field.Type, makeCall(fn, field.Type)))
	}
	return nil
}

func (c *Client) resolveField(field, tag string) (Func, string, bool) {
	candidates := []string{field, strcase.LowerCamelCase(field)}
	if tag != "" {
		candidates = []string{tag}
	}
	for _, name := range candidates {
		if fn, ok := c.methods[name]; ok {
			return fn, name, true
		}
	}
	return nil, "", false
}

func checkSignature(t reflect.Type) error {
	if t.NumIn() == 0 || t.In(0) != contextType {
		return NewError(CodeInvalidArgument, "first parameter must be context.Context")
	}
	if t.NumOut() != 2 || t.Out(1) != errorType {
		return NewError(CodeInvalidArgument, "results must be (T, error)")
	}
	if out := t.Out(0); out != responseType && out != anyType {
		return Errorf(CodeInvalidArgument, "first result must be *refit.Response or any, got %s", out)
	}
	return nil
}

func makeCall(fn Func, t reflect.Type) func([]reflect.Value) []reflect.Value {
	return func(in []reflect.Value) []reflect.Value {
		ctx, _ := in[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}

		var args []any
		for i := 1; i < len(in); i++ {
			if t.IsVariadic() && i == len(in)-1 {
				for j := 0; j < in[i].Len(); j++ {
					args = append(args, in[i].Index(j).Interface())
				}
				continue
			}
			args = append(args, in[i].Interface())
		}

		res, err := fn(ctx, args...)

		out := reflect.New(t.Out(0)).Elem()
		if t.Out(0) == responseType {
			if res != nil {
				out.Set(reflect.ValueOf(res))
			}
		} else if res != nil && res.Body != nil {
			out.Set(reflect.ValueOf(res.Body))
		}
		errOut := reflect.New(errorType).Elem()
		if err != nil {
			errOut.Set(reflect.ValueOf(err))
		}
		return []reflect.Value{out, errOut}
	}
}
