// Package directive parses refit directives from Go interface declarations.
//
// Directives are line comments on interface methods:
//
//	type TodoAPI interface {
//		//refit:GET /todos/{id}
//		//refit:static Accept application/json
//		//refit:path id
//		//refit:query verbose v
//		Get(ctx context.Context, id int, verbose bool) (*refit.Response, error)
//	}
//
// Method directives are GET, POST, PUT, DELETE and PATCH followed by a path
// template, plus static (header name and value). Parameter directives are
// path, query, header and body followed by a Go parameter name and, for all
// but body, an optional key that defaults to the parameter name. A leading
// context.Context parameter does not count toward argument indexes.
package directive

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/broady/refit"
	"github.com/broady/refit/definition"
)

const prefix = "//refit:"

// Interface is an annotated interface declaration.
type Interface struct {
	Name       string
	Pos        token.Position
	Definition *definition.File
}

// Result contains all annotated interfaces found in a package.
type Result struct {
	Interfaces []Interface

	// PackagePath is the import path of the parsed package.
	PackagePath string

	// PackageName is the name of the parsed package.
	PackageName string

	// Dir is the directory containing the package.
	Dir string
}

// Parse scans a Go package for refit directives.
//
// The pattern follows go command semantics:
//   - "." for current directory
//   - Import path like "github.com/foo/bar"
//   - Absolute or relative directory path
func Parse(pattern string) (*Result, error) {
	return ParseDir(pattern, "")
}

// ParseDir is like Parse but allows specifying a working directory.
// If dir is empty, the current directory is used.
func ParseDir(pattern, dir string) (*Result, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles,
		Dir:  dir,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %q", pattern)
	}

	if len(pkgs) > 1 {
		return nil, fmt.Errorf("multiple packages found matching %q; specify a single package", pattern)
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkg.Errors[0])
	}

	result := &Result{
		PackagePath: pkg.PkgPath,
		PackageName: pkg.Name,
	}

	if len(pkg.GoFiles) > 0 {
		result.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	fset := token.NewFileSet()
	for _, filename := range pkg.GoFiles {
		f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}

		ifaces, err := parseFile(fset, f)
		if err != nil {
			return nil, err
		}
		result.Interfaces = append(result.Interfaces, ifaces...)
	}

	return result, nil
}

// parseFile extracts annotated interfaces from a single file.
func parseFile(fset *token.FileSet, f *ast.File) ([]Interface, error) {
	var out []Interface
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			it, ok := ts.Type.(*ast.InterfaceType)
			if !ok {
				continue
			}
			reg := refit.NewRegistry()
			annotated := false
			for _, field := range it.Methods.List {
				fn, ok := field.Type.(*ast.FuncType)
				if !ok || len(field.Names) == 0 || field.Doc == nil {
					continue
				}
				name := field.Names[0].Name
				found, err := applyDirectives(fset, reg, name, fn, field.Doc)
				if err != nil {
					return nil, err
				}
				annotated = annotated || found
			}
			if !annotated {
				continue
			}
			out = append(out, Interface{
				Name:       ts.Name.Name,
				Pos:        fset.Position(ts.Pos()),
				Definition: definition.FromRegistry(reg),
			})
		}
	}
	return out, nil
}

// applyDirectives records the directives of one method into reg, in
// comment order. It reports whether any directive was found.
func applyDirectives(fset *token.FileSet, reg *refit.Registry, method string, fn *ast.FuncType, doc *ast.CommentGroup) (bool, error) {
	params := paramIndexes(fn)
	found, hasMethod := false, false
	var firstPos token.Position
	var headers map[string]string

	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, prefix) {
			continue
		}
		pos := fset.Position(c.Pos())
		if !found {
			firstPos = pos
		}
		found = true

		parts := strings.Fields(strings.TrimPrefix(c.Text, prefix))
		if len(parts) == 0 {
			return false, fmt.Errorf("%s: empty directive", pos)
		}

		switch kind := parts[0]; kind {
		case "GET", "POST", "PUT", "DELETE", "PATCH":
			if hasMethod {
				return false, fmt.Errorf("%s: %s has more than one method directive", pos, method)
			}
			if len(parts) != 2 {
				return false, fmt.Errorf("%s: //refit:%s takes exactly one path", pos, kind)
			}
			hasMethod = true
			if err := reg.RecordMethod(method, kind, parts[1], headers); err != nil {
				return false, fmt.Errorf("%s: %w", pos, err)
			}

		case "static":
			if len(parts) < 3 {
				return false, fmt.Errorf("%s: //refit:static takes a header name and value", pos)
			}
			if headers == nil {
				headers = map[string]string{}
			}
			headers[parts[1]] = strings.Join(parts[2:], " ")

		case "path", "query", "header", "body":
			if len(parts) < 2 || len(parts) > 3 || (kind == "body" && len(parts) != 2) {
				return false, fmt.Errorf("%s: malformed //refit:%s directive", pos, kind)
			}
			index, ok := params[parts[1]]
			if !ok {
				return false, fmt.Errorf("%s: %s has no parameter %q", pos, method, parts[1])
			}
			key := parts[1]
			if len(parts) == 3 {
				key = parts[2]
			}
			if err := reg.RecordParameter(method, index, refit.ParamRole(kind), key); err != nil {
				return false, fmt.Errorf("%s: %w", pos, err)
			}

		default:
			return false, fmt.Errorf("%s: unknown directive //refit:%s", pos, kind)
		}
	}

	if found && !hasMethod {
		return false, fmt.Errorf("%s: %s has refit directives but no method directive", firstPos, method)
	}
	if hasMethod && len(headers) > 0 {
		// static may follow the method directive; record again with all headers.
		desc, _ := reg.Lookup(method)
		if err := reg.RecordMethod(method, desc.HTTPMethod, desc.Path, headers); err != nil {
			return false, err
		}
	}
	return found, nil
}

// paramIndexes maps Go parameter names to argument indexes, skipping a
// leading context.Context.
func paramIndexes(fn *ast.FuncType) map[string]int {
	out := map[string]int{}
	if fn.Params == nil {
		return out
	}
	i := 0
	for n, field := range fn.Params.List {
		if n == 0 && isContext(field.Type) {
			continue
		}
		if len(field.Names) == 0 {
			i++
			continue
		}
		for _, name := range field.Names {
			out[name.Name] = i
			i++
		}
	}
	return out
}

func isContext(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "context" && sel.Sel.Name == "Context"
}
