package refit

import (
	"fmt"
	"maps"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is what a client needs besides the registry and transport. It is
// copied by NewClient and immutable afterwards.
//
// BaseURL is prepended to every path as is, so a relative base such as
// "/api" is allowed.
type Config struct {
	BaseURL       string `validate:"omitempty,uri"`
	GlobalHeaders map[string]string
	Auth          TokenSource // optional
}

// Validate checks the config.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verr := validationError("", err); verr != nil {
			return verr
		}
		return err
	}
	return nil
}

func (c Config) clone() Config {
	c.GlobalHeaders = maps.Clone(c.GlobalHeaders)
	return c
}

// FileConfig is the on-disk form of Config.
type FileConfig struct {
	BaseURL       string            `yaml:"base_url"`
	GlobalHeaders map[string]string `yaml:"global_headers"`
	AuthToken     string            `yaml:"auth_token"`
	AuthTokenEnv  string            `yaml:"auth_token_env"` // read at call time
}

// Config converts the file form. auth_token wins over auth_token_env.
func (fc FileConfig) Config() Config {
	cfg := Config{
		BaseURL:       fc.BaseURL,
		GlobalHeaders: fc.GlobalHeaders,
	}
	switch {
	case fc.AuthToken != "":
		tok := fc.AuthToken
		cfg.Auth = func() (Token, error) { return Immediate(tok), nil }
	case fc.AuthTokenEnv != "":
		env := fc.AuthTokenEnv
		cfg.Auth = func() (Token, error) { return Immediate(os.Getenv(env)), nil }
	}
	return cfg
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg := fc.Config()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
