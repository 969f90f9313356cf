package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const systemConfigPath = "/etc/spiketrace/config.toml"

// Load resolves the configuration path — explicit path, then the system
// path, then the per-user path under $HOME — and parses whichever file is
// found first. An explicit path that does not exist is an error. Without an
// explicit path, a missing file at both the system and per-user locations
// is not an error: Load returns the built-in defaults. Warnings produced by clamping
// out-of-range values are returned alongside the config for the caller to
// log.
func Load(explicitPath string) (Config, []string, error) {
	path, err := resolvePath(explicitPath)
	if err != nil {
		return Config{}, nil, err
	}
	if path == "" {
		cfg := Default()
		return cfg, nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, warnings, err := Parse(data)
	if err != nil {
		return Config{}, nil, err
	}
	cfg.ConfigPath = path
	return cfg, warnings, nil
}

// resolvePath applies the lookup order: explicit path > system path >
// per-user path. Returns "" when none of the candidates exist, signaling
// the caller to use defaults.
func resolvePath(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config path %q: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	if _, err := os.Stat(systemConfigPath); err == nil {
		return systemConfigPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	userPath := filepath.Join(home, ".config", "spiketrace", "config.toml")
	if _, err := os.Stat(userPath); err == nil {
		return userPath, nil
	}
	return "", nil
}

// Parse decodes TOML bytes over the built-in defaults, then clamps any
// out-of-range value back to its default, returning one warning string per
// clamp applied.
func Parse(data []byte) (Config, []string, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("parsing toml: %w", err)
	}

	warnings := ClampToValidRanges(&cfg)
	return cfg, warnings, nil
}
