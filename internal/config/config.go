// Package config loads circuitkit settings from YAML over in-code defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/edp1096/circuitkit/internal/consts"
)

var validate = validator.New()

type Config struct {
	Log    Log    `yaml:"log"`
	Solver Solver `yaml:"solver"`
	Sweep  Sweep  `yaml:"sweep"`
	Plot   Plot   `yaml:"plot"`
}

type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type Solver struct {
	Tolerance        float64 `yaml:"tolerance" validate:"gt=0,lt=1"`
	SingularityRatio float64 `yaml:"singularity_ratio" validate:"gt=1"`
}

// Sweep is the frequency sweep used when a netlist has no .ac line.
type Sweep struct {
	Type   string  `yaml:"type" validate:"oneof=DEC OCT LIN"`
	Points int     `yaml:"points" validate:"min=1,max=100000"`
	FStart float64 `yaml:"fstart" validate:"gte=0"`
	FStop  float64 `yaml:"fstop" validate:"gtefield=FStart"`
}

// Plot sizes are in centimeters.
type Plot struct {
	Width  float64 `yaml:"width" validate:"gt=0"`
	Height float64 `yaml:"height" validate:"gt=0"`
	Title  string  `yaml:"title"`
}

func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Solver: Solver{
			Tolerance:        consts.Tolerance,
			SingularityRatio: consts.SingularityRatio,
		},
		Sweep: Sweep{Type: "DEC", Points: 25, FStart: 1, FStop: 10e3},
		Plot:  Plot{Width: 16, Height: 12},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(content)
}

func Parse(content []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Sweep.Type = strings.ToUpper(cfg.Sweep.Type)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Sweep.Type != "LIN" && c.Sweep.FStart <= 0 {
		return fmt.Errorf("sweep.fstart must be positive for a %s sweep", c.Sweep.Type)
	}
	return nil
}
