package gen

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/dave/jennifer/jen"

	"github.com/broady/refit/definition"
	"github.com/broady/refit/internal/directive"
)

const refitPath = "github.com/broady/refit"

type Cmd struct {
	Package string `arg:"" optional:"" help:"Package to scan (default: current directory)." default:"."`
	Out     string `help:"Output file, relative to the package directory." short:"o" default:"refit_gen.go"`
}

func (c *Cmd) Run() error {
	result, err := directive.Parse(c.Package)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if len(result.Interfaces) == 0 {
		return fmt.Errorf("no //refit: directives found in %s", c.Package)
	}

	src, err := Generate(result.PackageName, result.Interfaces)
	if err != nil {
		return err
	}

	out := c.Out
	if !filepath.IsAbs(out) {
		out = filepath.Join(result.Dir, out)
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("wrote %s (%d interfaces)\n", out, len(result.Interfaces))
	return nil
}

// Generate renders one Register<Interface> function per interface.
func Generate(pkgName string, ifaces []directive.Interface) ([]byte, error) {
	f := jen.NewFile(pkgName)
	f.HeaderComment("Code generated by refit gen. DO NOT EDIT.")

	for _, iface := range ifaces {
		fn := "Register" + iface.Name
		f.Commentf("%s records the %s methods into r.", fn, iface.Name)
		f.Func().Id(fn).
			Params(jen.Id("r").Op("*").Qual(refitPath, "Registry")).
			Error().
			Block(registerBody(iface.Definition)...)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func registerBody(def *definition.File) []jen.Code {
	var stmts []jen.Code
	for _, name := range slices.Sorted(maps.Keys(def.Methods)) {
		m := def.Methods[name]
		stmts = append(stmts, checked(jen.Id("r").Dot("RecordMethod").Call(
			jen.Lit(name), jen.Lit(m.HTTPMethod), jen.Lit(m.Path), headersLit(m.Headers),
		)))
		for _, p := range m.Params {
			stmts = append(stmts, checked(jen.Id("r").Dot("RecordParameter").Call(
				jen.Lit(name), jen.Lit(p.Index), jen.Qual(refitPath, roleConst(p.In)), jen.Lit(p.Name),
			)))
		}
	}
	return append(stmts, jen.Return(jen.Nil()))
}

func checked(call *jen.Statement) jen.Code {
	return jen.If(jen.Err().Op(":=").Add(call), jen.Err().Op("!=").Nil()).Block(
		jen.Return(jen.Err()),
	)
}

func headersLit(h map[string]string) jen.Code {
	if len(h) == 0 {
		return jen.Nil()
	}
	d := jen.Dict{}
	for k, v := range h {
		d[jen.Lit(k)] = jen.Lit(v)
	}
	return jen.Map(jen.String()).String().Values(d)
}

func roleConst(in string) string {
	switch in {
	case "path":
		return "RolePath"
	case "query":
		return "RoleQuery"
	case "header":
		return "RoleHeader"
	default:
		return "RoleBody"
	}
}
