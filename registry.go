package refit

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"sync"
)

// ParamRole says where an argument ends up in the synthesized request.
type ParamRole string

const (
	RolePath   ParamRole = "path"
	RoleQuery  ParamRole = "query"
	RoleHeader ParamRole = "header"
	RoleBody   ParamRole = "body"
)

func (r ParamRole) valid() bool {
	switch r {
	case RolePath, RoleQuery, RoleHeader, RoleBody:
		return true
	}
	return false
}

// Param is the role recorded for one argument position.
type Param struct {
	Index int
	Role  ParamRole
	Name  string // optional; Key falls back to the decimal index
}

// Key returns the name used for path substitution and query/header naming.
func (p Param) Key() string {
	if p.Name != "" {
		return p.Name
	}
	return strconv.Itoa(p.Index)
}

// MethodDescriptor holds everything recorded for one API method.
type MethodDescriptor struct {
	Name       string
	HTTPMethod string
	Path       string
	Headers    map[string]string
	Params     map[int]Param

	defined bool // set once a method-level record arrives
}

var placeholderRE = regexp.MustCompile(`\{([^{}]+)\}`)

// Placeholders returns the {name} tokens of the path template, in order.
func (m *MethodDescriptor) Placeholders() []string {
	return placeholders(m.Path)
}

func placeholders(s string) []string {
	var out []string
	for _, sm := range placeholderRE.FindAllStringSubmatch(s, -1) {
		out = append(out, sm[1])
	}
	return out
}

// SortedParams returns the recorded params in index order.
func (m *MethodDescriptor) SortedParams() []Param {
	idx := slices.Sorted(maps.Keys(m.Params))
	out := make([]Param, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.Params[i])
	}
	return out
}

// bodyParam returns the explicit body parameter, if one was recorded.
func (m *MethodDescriptor) bodyParam() (Param, bool) {
	for _, p := range m.Params {
		if p.Role == RoleBody {
			return p, true
		}
	}
	return Param{}, false
}

func (m *MethodDescriptor) clone() *MethodDescriptor {
	c := *m
	c.Headers = maps.Clone(m.Headers)
	c.Params = maps.Clone(m.Params)
	return &c
}

// Registry maps method names to their descriptors.
//
// Method and parameter records for the same name merge in any order. Once
// frozen (NewClient does this) the registry is read-only and safe to share
// between any number of clients.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]*MethodDescriptor
	frozen  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[string]*MethodDescriptor),
	}
}

func validHTTPMethod(m string) bool {
	switch m {
	case "GET", "POST", "PUT", "DELETE", "PATCH":
		return true
	}
	return false
}

// entry returns the descriptor for name, creating it. Caller holds mu.
func (r *Registry) entry(name string) *MethodDescriptor {
	m, ok := r.methods[name]
	if !ok {
		m = &MethodDescriptor{
			Name:    name,
			Headers: map[string]string{},
			Params:  map[int]Param{},
		}
		r.methods[name] = m
	}
	return m
}

// RecordMethod records the verb, path template and static headers of a
// method. Parameters already recorded for name are kept.
func (r *Registry) RecordMethod(name, httpMethod, path string, headers map[string]string) error {
	if name == "" {
		return NewError(CodeInvalidArgument, "method name is required")
	}
	if !validHTTPMethod(httpMethod) {
		return Errorf(CodeInvalidArgument, "%s: unsupported HTTP method %q", name, httpMethod).
			WithDetail("method", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return Errorf(CodeFailedPrecondition, "record method %s: registry is frozen", name).
			WithDetail("method", name).
			WithCause(ErrFrozen)
	}

	m := r.entry(name)
	m.HTTPMethod = httpMethod
	m.Path = path
	m.Headers = maps.Clone(headers)
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	m.defined = true
	return nil
}

// RecordParameter records the role of the argument at index. Recording the
// same index again replaces its role; method-level facts are kept.
func (r *Registry) RecordParameter(name string, index int, role ParamRole, key string) error {
	if name == "" {
		return NewError(CodeInvalidArgument, "method name is required")
	}
	if index < 0 {
		return Errorf(CodeInvalidArgument, "%s: negative parameter index %d", name, index).
			WithDetail("method", name)
	}
	if !role.valid() {
		return Errorf(CodeInvalidArgument, "%s: unknown parameter role %q", name, role).
			WithDetail("method", name).
			WithDetail("index", index)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return Errorf(CodeFailedPrecondition, "record parameter %s[%d]: registry is frozen", name, index).
			WithDetail("method", name).
			WithCause(ErrFrozen)
	}

	m := r.entry(name)
	if role == RoleBody {
		if b, ok := m.bodyParam(); ok && b.Index != index {
			return Errorf(CodeInvalidArgument, "%s: parameter %d is already the body", name, b.Index).
				WithDetail("method", name).
				WithDetail("index", index)
		}
		key = ""
	}
	m.Params[index] = Param{Index: index, Role: role, Name: key}
	return nil
}

// Lookup returns a copy of the descriptor recorded for name. Names that only
// ever received parameter records are reported as absent.
func (r *Registry) Lookup(name string) (*MethodDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	if !ok || !m.defined {
		return nil, false
	}
	return m.clone(), true
}

// Names returns the sorted names of all request-producing methods.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name, m := range r.methods {
		if m.defined {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
