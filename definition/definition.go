// Package definition reads and writes API descriptions as YAML (or JSON)
// documents and loads them into a refit.Registry.
//
// A document looks like:
//
//	methods:
//	  Get:
//	    method: GET
//	    path: /todos/{id}
//	    headers:
//	      Accept: application/json
//	    params:
//	      - index: 0
//	        in: path
//	        name: id
package definition

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/broady/refit"
)

var validate = validator.New()

// File is a parsed definition document.
type File struct {
	Methods map[string]Method `yaml:"methods" validate:"required,dive"`
}

// Method describes one API method.
type Method struct {
	HTTPMethod string            `yaml:"method" validate:"required,oneof=GET POST PUT DELETE PATCH"`
	Path       string            `yaml:"path"`
	Headers    map[string]string `yaml:"headers,omitempty"`
	Params     []Param           `yaml:"params,omitempty" validate:"dive"`
}

// Param describes the role of one argument.
type Param struct {
	Index int    `yaml:"index" validate:"min=0"`
	In    string `yaml:"in" validate:"required,oneof=path query header body"`
	Name  string `yaml:"name,omitempty"`
}

// Parse decodes and validates a definition document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing definition: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads a definition document from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate checks field values and that each method has at most one body.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid definition: %w", err)
	}
	for name, m := range f.Methods {
		bodies := 0
		for _, p := range m.Params {
			if p.In == string(refit.RoleBody) {
				bodies++
			}
		}
		if bodies > 1 {
			return fmt.Errorf("invalid definition: method %s has %d body parameters", name, bodies)
		}
	}
	return nil
}

// Register records every method of f into reg. Parameters are recorded
// before the method itself.
func (f *File) Register(reg *refit.Registry) error {
	for _, name := range slices.Sorted(maps.Keys(f.Methods)) {
		m := f.Methods[name]
		for _, p := range m.Params {
			if err := reg.RecordParameter(name, p.Index, refit.ParamRole(p.In), p.Name); err != nil {
				return err
			}
		}
		if err := reg.RecordMethod(name, m.HTTPMethod, m.Path, m.Headers); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns a new registry populated from f.
func (f *File) Registry() (*refit.Registry, error) {
	reg := refit.NewRegistry()
	if err := f.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// FromRegistry describes every request-producing method of reg.
func FromRegistry(reg *refit.Registry) *File {
	f := &File{Methods: map[string]Method{}}
	for _, name := range reg.Names() {
		desc, _ := reg.Lookup(name)
		m := Method{
			HTTPMethod: desc.HTTPMethod,
			Path:       desc.Path,
		}
		if len(desc.Headers) > 0 {
			m.Headers = desc.Headers
		}
		for _, p := range desc.SortedParams() {
			m.Params = append(m.Params, Param{Index: p.Index, In: string(p.Role), Name: p.Name})
		}
		f.Methods[name] = m
	}
	return f
}

// Marshal renders f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
