package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/broady/refit/cmd/refit/internal/call"
	"github.com/broady/refit/cmd/refit/internal/gen"
	"github.com/broady/refit/cmd/refit/internal/inspect"
	"github.com/broady/refit/cmd/refit/internal/scan"
)

type CLI struct {
	Version VersionCmd  `cmd:"" help:"Print version information."`
	Inspect inspect.Cmd `cmd:"" help:"Print the methods of a definition file."`
	Call    call.Cmd    `cmd:"" help:"Call a method from a definition file."`
	Scan    scan.Cmd    `cmd:"" help:"Extract definitions from //refit: directives."`
	Gen     gen.Cmd     `cmd:"" help:"Generate Go registration code from //refit: directives."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("refit"),
		kong.Description("Declarative HTTP clients from annotated API definitions."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
