package cli

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the host bootstrap file, lumen.yaml, read from the current
// directory if present. It carries the load-path roots a project's modules
// resolve against -- the "module-load-path bootstrap" the core spec leaves
// to the host CLI entirely.
type Config struct {
	LoadPaths []string `yaml:"load_paths"`
}

// loadConfig reads lumen.yaml from path if it exists; a missing file is not
// an error, it just yields a zero-value Config.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
