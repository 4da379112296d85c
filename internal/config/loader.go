package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	pkgconfig "github.com/goran-ethernal/StarkIndexor/pkg/config"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvRPCURL      = "RPC_URL"
	EnvDatabaseURL = "DATABASE_URL"
	EnvContracts   = "CONTRACTS"
)

// LoadFromFile loads configuration from a file, auto-detecting the format by extension.
// Supported formats: .yaml, .yml, .json, .toml
// Defaults and validation are applied by Process, after environment and
// flag overrides have been layered on top.
func LoadFromFile(path string) (*pkgconfig.Config, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return LoadFromYAML(path)
	case ".json":
		return LoadFromJSON(path)
	case ".toml":
		return LoadFromTOML(path)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
}

// LoadFromYAML loads configuration from a YAML file.
func LoadFromYAML(path string) (*pkgconfig.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg pkgconfig.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &cfg, nil
}

// LoadFromJSON loads configuration from a JSON file.
func LoadFromJSON(path string) (*pkgconfig.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg pkgconfig.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	return &cfg, nil
}

// LoadFromTOML loads configuration from a TOML file.
func LoadFromTOML(path string) (*pkgconfig.Config, error) {
	var cfg pkgconfig.Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays recognized environment variables on the configuration.
// Environment values take precedence over file values; command-line flags
// (applied by the caller afterwards) take precedence over both.
func ApplyEnv(cfg *pkgconfig.Config) error {
	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.Sync.RPCURL = v
	}

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Sync.DB.Path = v
	}

	if v := os.Getenv(EnvContracts); v != "" {
		contracts, err := pkgconfig.ParseContractList(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvContracts, err)
		}
		cfg.Sync.Contracts = contracts
	}

	return nil
}

// Process applies defaults and validates the configuration.
func Process(cfg *pkgconfig.Config) (*pkgconfig.Config, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
