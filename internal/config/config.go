// Package config resolves the handful of process-wide settings the
// compiler facade (package pkl) needs before it can bootstrap: where the
// runtime's pkl-rt.pk/std.pk live, and the colon-separated module load
// path %DATADIR% expands into (spec §6 "Module lookup").
//
// Grounded on the teacher's own indirect dependency set: an on-disk YAML
// overlay read with gopkg.in/yaml.v3, then environment variables applied
// on top with github.com/caarlos0/env/v6, the conventional pairing for
// that library (struct tags double as both the YAML key and the env var
// name's source of truth).
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// envPrefix namespaces every variable this package reads, so POKE_DATADIR
// rather than a bare DATADIR collides with nothing else in the process
// environment.
const envPrefix = "POKE_"

// Config is the ambient configuration a Compiler is built from. DataDir
// is substituted for every %DATADIR% token a load path entry contains
// (spec §6); RTPath locates pkl-rt.pk and std.pk for bootstrapping
// (spec §6 "new(vm, rt_path)").
type Config struct {
	DataDir  string `yaml:"datadir" env:"DATADIR"`
	LoadPath string `yaml:"load_path" env:"LOAD_PATH"`
	RTPath   string `yaml:"rt_path" env:"RT_PATH"`
}

// Default returns the configuration a freshly installed poke would use
// with no overlay file and no environment overrides.
func Default() *Config {
	return &Config{
		DataDir:  "/usr/local/share/poke",
		LoadPath: "%DATADIR%",
		RTPath:   "/usr/local/share/poke",
	}
}

// Load reads path as a YAML overlay on top of Default, then applies any
// POKE_-prefixed environment variable on top of that (the env package's
// own convention — whichever source is applied last wins, which here is
// always the environment). A missing overlay file is not an error: an
// installation with no config file just runs on Default()+env.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("config: applying environment: %w", err)
	}
	return cfg, nil
}
