// Package config holds the tool configuration, merged from defaults
// and an optional YAML file. Command line flags override both.
package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Primitive worker pool size, 0 means one worker per CPU.
	Workers int `yaml:"workers"`

	// Preview server
	Listen  string `yaml:"listen"`
	WebPath string `yaml:"web_path"`

	// Spew-dump processed primitives to stdout.
	Dump bool `yaml:"dump"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  runtime.NumCPU(),
		WebPath:  "web",
	}
}

// Load merges the YAML file at path over the defaults. An empty path
// returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config %q", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse config %q", path)
	}
	return cfg, nil
}
