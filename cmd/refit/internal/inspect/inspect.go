package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/broady/refit"
	"github.com/broady/refit/definition"
)

type Cmd struct {
	Def string `help:"Definition file (YAML or JSON)." required:"" type:"existingfile"`
}

func (c *Cmd) Run() error {
	f, err := definition.Load(c.Def)
	if err != nil {
		return err
	}
	reg, err := f.Registry()
	if err != nil {
		return err
	}
	Print(os.Stdout, reg)
	return nil
}

// Print writes a one-line summary per method, flagging path placeholders
// that no path parameter fills.
func Print(w io.Writer, reg *refit.Registry) {
	for _, name := range reg.Names() {
		desc, _ := reg.Lookup(name)
		fmt.Fprintf(w, "%s\t%s %s\n", name, desc.HTTPMethod, desc.Path)

		filled := map[string]bool{}
		for _, p := range desc.SortedParams() {
			fmt.Fprintf(w, "\t[%d] %s %s\n", p.Index, p.Role, p.Key())
			if p.Role == refit.RolePath {
				filled[p.Key()] = true
			}
		}
		for k, v := range desc.Headers {
			fmt.Fprintf(w, "\t%s: %s\n", k, v)
		}

		var missing []string
		for _, ph := range desc.Placeholders() {
			if !filled[ph] {
				missing = append(missing, "{"+ph+"}")
			}
		}
		if len(missing) > 0 {
			fmt.Fprintf(w, "\t! unresolved: %s\n", strings.Join(missing, ", "))
		}
	}
}
