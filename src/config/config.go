package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".stevedore.yml"

// Config is the top-level stevedore configuration.
type Config struct {
	Image      string           `yaml:"image"` // default image name override (without tag)
	Build      BuildConfig      `yaml:"build"`
	Cache      CacheConfig      `yaml:"cache"`
	Gate       GateConfig       `yaml:"gate"`
	Registries []RegistryConfig `yaml:"registries"`
	Scan       ScanConfig       `yaml:"scan"`
}

// ScanConfig toggles the pre-push secrets gate.
type ScanConfig struct {
	Secrets *bool `yaml:"secrets"`
}

// SecretsEnabled reports whether the secrets gate should run. Defaults to on.
func (s ScanConfig) SecretsEnabled() bool {
	if s.Secrets == nil {
		return true
	}
	return *s.Secrets
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Build:      DefaultBuildConfig(),
		Cache:      DefaultCacheConfig(),
		Gate:       DefaultGateConfig(),
		Registries: DefaultRegistries(),
	}
}
