package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// configFileName is the per-directory config file.
const configFileName = ".jzmut.json"

// Config holds tool defaults overridable by flags.
type Config struct {
	Schema    string `json:"schema,omitempty"`
	CorpusDir string `json:"corpus_dir,omitempty"` //nolint:tagliatelle // snake_case for config file
	Seed      uint64 `json:"seed,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CorpusDir: ".corpus",
		Seed:      1,
	}
}

// loadConfig reads the config file from dir if present, applying defaults
// otherwise. The file is JWCC: comments and trailing commas are allowed.
func loadConfig(dir string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, configFileName)) //nolint:gosec // fixed name under caller dir
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("reading %s: %w", configFileName, err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", configFileName, err)
	}

	if err := json.Unmarshal(std, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", configFileName, err)
	}

	return cfg, nil
}
