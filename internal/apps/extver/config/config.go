package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the optional extver.toml / config.toml file.
type Config struct {
	// GalaxyVersion is "latest", a float-like string, or a bare TOML number.
	GalaxyVersion any      `toml:"galaxy_version"`
	Paths         []string `toml:"paths"`
	Record        bool     `toml:"record"`
	StateDB       string   `toml:"state_db"`
}

func ConfigBasePath() string {
	homedir, err := os.UserHomeDir()
	if err != nil {
		homedir = "/usr/local/config/extver"
	}
	return filepath.Join(homedir, ".config", "extver")
}

func ConfigFile() string {
	return filepath.Join(ConfigBasePath(), "config.toml")
}

func StateDBFile() string {
	return filepath.Join(ConfigBasePath(), "state.db")
}

// DefaultConfig returns the values used when no config file exists.
func DefaultConfig() *Config {
	return &Config{StateDB: StateDBFile()}
}

// Load reads the config file at path. A missing file yields defaults; a
// malformed file or unknown keys are errors.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	switch cfg.GalaxyVersion.(type) {
	case nil, string, int64, float64:
	default:
		return nil, fmt.Errorf("config file %s: galaxy_version must be a string or a number", path)
	}

	if cfg.StateDB == "" {
		cfg.StateDB = StateDBFile()
	}
	return cfg, nil
}

// OpenLogFile opens path for appending, creating parent folders as needed.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create/open file: %w", err)
	}
	return f, nil
}
