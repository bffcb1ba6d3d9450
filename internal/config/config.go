// Package config loads trawl configuration from a per-root config file and
// the environment. Precedence: environment > .trawl.yml > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File is the optional per-root configuration file name.
const File = ".trawl.yml"

// Config holds all configuration for trawl.
type Config struct {
	ListenAddr  string        `yaml:"listen_addr"`
	ListenPort  int           `yaml:"listen_port"`
	RemoteURL   string        `yaml:"remote_url"`
	ResultCap   int           `yaml:"result_cap"`
	ExcludeDirs []string      `yaml:"exclude_dirs"`
	Debounce    time.Duration `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:  "127.0.0.1",
		ListenPort:  3000,
		ResultCap:   2000,
		ExcludeDirs: []string{".git", "node_modules", "target", "dist", ".trawl"},
		Debounce:    250 * time.Millisecond,
	}
}

// Load reads configuration for the given root directory. A missing config
// file is not an error. A .env file in the root is loaded first so that
// TRAWL_* variables can live alongside the tree being reviewed.
func Load(root string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(root, ".env"))

	cfg := Default()

	path := filepath.Join(root, File)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults apply
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.ResultCap <= 0 {
		return nil, fmt.Errorf("result_cap must be positive, got %d", cfg.ResultCap)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRAWL_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TRAWL_LISTEN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ListenPort = p
		}
	}
	if v := os.Getenv("TRAWL_REMOTE_URL"); v != "" {
		cfg.RemoteURL = v
	}
	if v := os.Getenv("TRAWL_RESULT_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ResultCap = n
		}
	}
}

// Listen returns the host:port the serve command should bind.
func (c *Config) Listen() string {
	return fmt.Sprintf("%s:%d", c.ListenAddr, c.ListenPort)
}
