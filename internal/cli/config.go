package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ldc/internal/eval"
	"github.com/roach88/ldc/internal/units"
)

// ProjectConfig is the optional ldc.toml sitting next to a document: unit
// registry overrides (extra currencies beyond the stock registry) and a
// default currency code. It never replaces the built-in linear/affine
// units; it only extends the registry RegisterCurrency already exposes.
type ProjectConfig struct {
	DefaultCurrency string   `toml:"default_currency"`
	Currencies      []string `toml:"currencies"`
}

// LoadProjectConfig reads an ldc.toml at path. A path that does not exist
// is not an error: the zero ProjectConfig yields the stock registry.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cli: reading project config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cli: parsing project config: %w", err)
	}
	return cfg, nil
}

// Registry builds a unit registry from c: the stock set plus every
// declared currency (DefaultCurrency included, even if also listed in
// Currencies — RegisterCurrency is idempotent for a repeated code).
func (c *ProjectConfig) Registry() *units.Registry {
	reg := units.NewRegistry()
	for _, code := range c.Currencies {
		reg.RegisterCurrency(code)
	}
	if c.DefaultCurrency != "" {
		reg.RegisterCurrency(c.DefaultCurrency)
	}
	return reg
}

// OptionsFile is the host-owned evaluator options document (spec §6's
// "effective options" side of the host-to-core contract), loaded from
// YAML so it is comfortable to hand-edit alongside a document under
// test. RelationsDir anchors relative @relations paths; Caps mirrors
// eval.Options.Caps verbatim.
type OptionsFile struct {
	Now          *time.Time      `yaml:"now"`
	RelationsDir string          `yaml:"relations_dir"`
	Caps         map[string]bool `yaml:"caps"`
}

// LoadOptionsFile reads a YAML options file at path. A path that does
// not exist is not an error: the zero OptionsFile evaluates with
// time.Now(), no relation directory, and no capabilities.
func LoadOptionsFile(path string) (*OptionsFile, error) {
	of := &OptionsFile{}
	if path == "" {
		return of, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return of, nil
		}
		return nil, fmt.Errorf("cli: reading options file: %w", err)
	}
	if err := yaml.Unmarshal(data, of); err != nil {
		return nil, fmt.Errorf("cli: parsing options file: %w", err)
	}
	return of, nil
}

// EvalOptions merges a loaded OptionsFile and ProjectConfig into a ready
// eval.Options, wiring a directory-relative relation loader when
// RelationsDir is set.
func (of *OptionsFile) EvalOptions(proj *ProjectConfig) eval.Options {
	opts := eval.Options{
		Units: proj.Registry(),
		Caps:  of.Caps,
	}
	if of.Now != nil {
		opts.Now = *of.Now
	}
	if of.RelationsDir != "" {
		opts.Loader = dirRelationLoader(of.RelationsDir)
	}
	return opts
}
