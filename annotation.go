package refit

import "fmt"

// Annotation is a method- or parameter-level fact about an API method.
// Build them with GET, POST, PUT, DELETE, PATCH, Path, Query, Header and Body.
type Annotation interface {
	apply(r *Registry, method string) error
}

type methodAnnotation struct {
	httpMethod string
	path       string
	headers    map[string]string
}

func (a methodAnnotation) apply(r *Registry, method string) error {
	return r.RecordMethod(method, a.httpMethod, a.path, a.headers)
}

type paramAnnotation struct {
	index int
	role  ParamRole
	name  string
}

func (a paramAnnotation) apply(r *Registry, method string) error {
	return r.RecordParameter(method, a.index, a.role, a.name)
}

func mergeHeaders(hs []map[string]string) map[string]string {
	if len(hs) == 0 {
		return nil
	}
	out := map[string]string{}
	for _, h := range hs {
		for k, v := range h {
			out[k] = v
		}
	}
	return out
}

// GET declares a GET method. Optional header maps become static headers.
func GET(path string, headers ...map[string]string) Annotation {
	return methodAnnotation{"GET", path, mergeHeaders(headers)}
}

// POST declares a POST method.
func POST(path string, headers ...map[string]string) Annotation {
	return methodAnnotation{"POST", path, mergeHeaders(headers)}
}

// PUT declares a PUT method.
func PUT(path string, headers ...map[string]string) Annotation {
	return methodAnnotation{"PUT", path, mergeHeaders(headers)}
}

// DELETE declares a DELETE method.
func DELETE(path string, headers ...map[string]string) Annotation {
	return methodAnnotation{"DELETE", path, mergeHeaders(headers)}
}

// PATCH declares a PATCH method.
func PATCH(path string, headers ...map[string]string) Annotation {
	return methodAnnotation{"PATCH", path, mergeHeaders(headers)}
}

// Path substitutes argument index into every {name} of the path template.
// An empty name uses the decimal index, e.g. {0}.
func Path(index int, name string) Annotation {
	return paramAnnotation{index, RolePath, name}
}

// Query sends argument index as a query parameter.
func Query(index int, name string) Annotation {
	return paramAnnotation{index, RoleQuery, name}
}

// Header sends argument index as a request header.
func Header(index int, name string) Annotation {
	return paramAnnotation{index, RoleHeader, name}
}

// Body sends argument index as the request body.
func Body(index int) Annotation {
	return paramAnnotation{index, RoleBody, ""}
}

// Define applies annotations to method in the order given. Parameter
// annotations may come before or after the method annotation.
//
//	reg.Define("Get", refit.Path(0, "id"), refit.GET("/todos/{id}"))
func (r *Registry) Define(method string, annotations ...Annotation) error {
	for _, a := range annotations {
		if err := a.apply(r, method); err != nil {
			return err
		}
	}
	return nil
}

// MustDefine is like Define but panics on error. It is meant for package
// level registration.
func (r *Registry) MustDefine(method string, annotations ...Annotation) *Registry {
	if err := r.Define(method, annotations...); err != nil {
		panic(fmt.Sprintf("refit: define %s: %v", method, err))
	}
	return r
}
