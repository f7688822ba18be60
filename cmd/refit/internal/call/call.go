package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/broady/refit"
	"github.com/broady/refit/definition"
	"github.com/broady/refit/httptransport"
	"github.com/broady/refit/middleware"
)

type Cmd struct {
	Def     string            `help:"Definition file (YAML or JSON)." required:"" type:"existingfile"`
	Config  string            `help:"Client config file (YAML)." type:"existingfile"`
	BaseURL string            `help:"Base URL, overrides the config file." name:"base-url"`
	Header  map[string]string `help:"Extra global header, e.g. -H X-Trace=1." short:"H"`
	Timeout time.Duration     `help:"Request timeout." default:"30s"`
	Verbose bool              `help:"Log requests to stderr." short:"v"`

	Method string   `arg:"" help:"Method name from the definition."`
	Args   []string `arg:"" optional:"" help:"Positional arguments as JSON values; bare words are strings."`
}

func (c *Cmd) Run() error {
	def, err := definition.Load(c.Def)
	if err != nil {
		return err
	}
	reg, err := def.Registry()
	if err != nil {
		return err
	}

	var cfg refit.Config
	if c.Config != "" {
		if cfg, err = refit.LoadConfig(c.Config); err != nil {
			return err
		}
	}
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if len(c.Header) > 0 {
		headers := map[string]string{}
		for k, v := range cfg.GlobalHeaders {
			headers[k] = v
		}
		for k, v := range c.Header {
			headers[k] = v
		}
		cfg.GlobalHeaders = headers
	}

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, err := refit.NewClient(reg, httptransport.New(), cfg)
	if err != nil {
		return err
	}
	client.WithLogger(logger).WithInterceptor(middleware.LoggingInterceptor(logger))

	fn, ok := client.Method(c.Method)
	if !ok {
		return fmt.Errorf("method %q is not defined in %s (have: %v)", c.Method, c.Def, reg.Names())
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	res, err := fn(ctx, ParseArgs(c.Args)...)
	if err != nil {
		var se *httptransport.StatusError
		if errors.As(err, &se) {
			printBody(se.Body)
		}
		return err
	}
	printBody(res.Body)
	return nil
}

// ParseArgs decodes each argument as JSON, keeping it as a string when it
// is not valid JSON. The literal null becomes an absent value.
func ParseArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		var v any
		if err := json.Unmarshal([]byte(a), &v); err != nil {
			out[i] = a
			continue
		}
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			v = int64(f)
		}
		out[i] = v
	}
	return out
}

func printBody(body any) {
	switch b := body.(type) {
	case nil:
	case []byte:
		os.Stdout.Write(b)
		fmt.Println()
	default:
		data, _ := json.MarshalIndent(b, "", "  ")
		fmt.Println(string(data))
	}
}
