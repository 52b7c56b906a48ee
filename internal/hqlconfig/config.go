// Package hqlconfig reads hql.yaml: CDN roots for remote imports, stdlib
// search paths, and overrides for the expander's fixed-point bounds.
// Grounded on internal/eval_harness.LoadSpec's yaml.v3 read-and-validate
// idiom from the teacher's pack.
package hqlconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the parsed contents of hql.yaml (spec §5 "Configuration").
type Config struct {
	// CDNRoots maps a remote scheme name ("npm", "jsr") to the base URL
	// used to resolve it.
	CDNRoots map[string]string `yaml:"cdn_roots"`

	// StdlibPaths are directories searched, in order, for a local import
	// that does not resolve relative to the importing file, before the
	// import fails with FileNotFound.
	StdlibPaths []string `yaml:"stdlib_paths"`

	// MaxIterations overrides the expander's fixed-point bound (default 100
	// if zero).
	MaxIterations int `yaml:"max_iterations"`

	// MaxExpandDepth overrides the expander's per-call recursion bound
	// (default 100 if zero).
	MaxExpandDepth int `yaml:"max_expand_depth"`
}

// Default returns the zero-config defaults (spec §4.4 MAX_ITERATIONS=100,
// MAX_EXPAND_DEPTH=100).
func Default() *Config {
	return &Config{
		CDNRoots:       map[string]string{"npm": "https://esm.sh", "jsr": "https://esm.sh/jsr"},
		StdlibPaths:    []string{},
		MaxIterations:  100,
		MaxExpandDepth: 100,
	}
}

// Load reads and validates hql.yaml at path. A missing file is not an
// error — Default() is returned instead, since a project need not carry one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100
	}
	if cfg.MaxExpandDepth <= 0 {
		cfg.MaxExpandDepth = 100
	}
	return cfg, nil
}
