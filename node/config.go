package node

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the indexer needs to start: where to persist
// state, which network's genesis/MBTC constants apply, and how verbosely to
// log. Defaults live in DefaultConfig; callers may overlay environment
// variables with LoadConfig the way the teacher's "dummy"-prefixed
// envconfig.Process call does.
type Config struct {
	Network  string `envconfig:"NETWORK"`
	DataDir  string `envconfig:"DATA_DIR"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// MetricsAddr, if non-empty, is the bind address for the Prometheus
	// /metrics endpoint (empty disables it).
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {},
}

var allowedNetworks = map[string]struct{}{
	"mainnet": {}, "testnet": {}, "regtest": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".relics"
	}
	return filepath.Join(home, ".relics")
}

func DefaultConfig() Config {
	return Config{
		Network:     "mainnet",
		DataDir:     DefaultDataDir(),
		LogLevel:    "info",
		MetricsAddr: "",
	}
}

// LoadConfig starts from DefaultConfig and overlays RELICS_-prefixed
// environment variables, mirroring the teacher's envconfig.Process overlay.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process("relics", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	network := strings.ToLower(strings.TrimSpace(cfg.Network))
	if _, ok := allowedNetworks[network]; !ok {
		return fmt.Errorf("invalid network %q", cfg.Network)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return nil
}
