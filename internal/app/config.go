package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is a decoded config file, keyed by option name with underscores.
type Config map[string]interface{}

// LoadConfig decodes the TOML or YAML file at path, chosen by extension.
// An empty path yields an empty Config.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	if path == "" {
		return cfg, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml", ".cfg", ".conf":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s - %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s - %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s - %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}

	return cfg.normalize(), nil
}

// normalize accepts dashed keys as written on the command line.
func (cfg Config) normalize() Config {
	for k, v := range cfg {
		if strings.Contains(k, "-") {
			delete(cfg, k)
			cfg[strings.ReplaceAll(k, "-", "_")] = v
		}
	}

	return cfg
}
