package scan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/broady/refit/internal/directive"
)

type Cmd struct {
	Package string `arg:"" optional:"" help:"Package to scan (default: current directory)." default:"."`
	Out     string `help:"Directory to write one <Interface>.yaml per interface (default: print to stdout)." short:"o"`
}

func (c *Cmd) Run() error {
	result, err := directive.Parse(c.Package)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if len(result.Interfaces) == 0 {
		fmt.Fprintf(os.Stderr, "no //refit: directives found in %s\n", result.PackagePath)
		return nil
	}

	for _, iface := range result.Interfaces {
		data, err := iface.Definition.Marshal()
		if err != nil {
			return fmt.Errorf("%s: %w", iface.Name, err)
		}
		if c.Out == "" {
			fmt.Printf("# %s (%s)\n%s", iface.Name, iface.Pos, data)
			continue
		}
		path := filepath.Join(c.Out, iface.Name+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("✓ %s → %s\n", iface.Name, path)
	}
	return nil
}
