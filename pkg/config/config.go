/*
Package config manages TOML config for the dictx engine and tools.
*/
package config

import (
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/solrex/dictx/internal/utils"
)

// Config holds the entire config structure
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Search SearchConfig `toml:"search"`
	Server ServerConfig `toml:"server"`
}

// EngineConfig holds database build options.
type EngineConfig struct {
	SuffixRatio float64 `toml:"suffix_ratio"`
	MinSuffix   uint32  `toml:"min_suffix"`
	// CharTable restricts and orders the bytes tried during subtree
	// enumeration; empty means the full 0..255 table. NUL is always kept.
	CharTable string `toml:"char_table"`
}

// SearchConfig holds default query parameters.
type SearchConfig struct {
	MinCommonLen uint32 `toml:"min_common_len"`
	MinDwordLen  uint32 `toml:"min_dword_len"`
	MaxDwordLen  uint32 `toml:"max_dword_len"`
	Limit        uint32 `toml:"limit"`
	DepthFirst   bool   `toml:"depth_first"`
	PrefixOnly   bool   `toml:"prefix_only"`
	AverageLimit bool   `toml:"average_limit"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit uint32 `toml:"max_limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			SuffixRatio: 0.5,
			MinSuffix:   2,
		},
		Search: SearchConfig{
			MinCommonLen: 4,
			MinDwordLen:  0,
			MaxDwordLen:  8,
			Limit:        1000,
			AverageLimit: true,
		},
		Server: ServerConfig{
			MaxLimit: 10000,
		},
	}
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
