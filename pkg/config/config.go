/*
Package config manages TOML config for icdnorm.

A missing file is created with defaults; a file with syntax errors is parsed
section by section so that valid keys still apply.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/charmbracelet/log"
)

// FileName is the config file looked up in the config dir.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Dict     DictConfig     `toml:"dict"`
	Segment  SegmentConfig  `toml:"segment"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Output   OutputConfig   `toml:"output"`
	Server   ServerConfig   `toml:"server"`
}

// DictConfig locates the dictionary.
type DictConfig struct {
	// Dir holds manifest.yaml and the sources it names.
	Dir string `toml:"dir"`
	// Encoding of the month files read in batch mode.
	InputEncoding string `toml:"input_encoding"`
}

// SegmentConfig holds segmenter options.
type SegmentConfig struct {
	Experimental  bool `toml:"experimental"`
	MaxLiveStates int  `toml:"max_live_states"`
	CacheSize     int  `toml:"cache_size"`
}

// PipelineConfig holds batch options.
type PipelineConfig struct {
	ChainSplit bool `toml:"chain_split"`
	// Workers bounds files in flight; 0 means one per CPU.
	Workers int `toml:"workers"`
}

// OutputConfig holds result options.
type OutputConfig struct {
	DBPath string `toml:"db_path"`
	JSON   bool   `toml:"json"`
}

// ServerConfig holds IPC and CLI options.
type ServerConfig struct {
	MaxInputLen int  `toml:"max_input_len"`
	NoFilter    bool `toml:"no_filter"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dict: DictConfig{
			Dir:           "data/",
			InputEncoding: "utf-8",
		},
		Segment: SegmentConfig{
			Experimental:  false,
			MaxLiveStates: 1024,
			CacheSize:     65536,
		},
		Pipeline: PipelineConfig{
			ChainSplit: false,
			Workers:    0,
		},
		Output: OutputConfig{
			DBPath: "results.db",
			JSON:   false,
		},
		Server: ServerConfig{
			MaxInputLen: 256,
			NoFilter:    false,
		},
	}
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [configDir]/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath, configDir string) (*Config, string) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	if configDir == "" {
		log.Warn("No config directory available. Using built-in defaults...")
		return DefaultConfig(), ""
	}

	defaultPath := filepath.Join(configDir, FileName)
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath
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
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Keys missing from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse recovers the sections that still decode.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "segment"); ok {
		extractSegmentConfig(section, &config.Segment)
	}
	if section, ok := utils.ExtractSection(tempConfig, "pipeline"); ok {
		extractPipelineConfig(section, &config.Pipeline)
	}
	if section, ok := utils.ExtractSection(tempConfig, "output"); ok {
		extractOutputConfig(section, &config.Output)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	return config, nil
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.Extract[string](data, "dir"); ok {
		dict.Dir = val
	}
	if val, ok := utils.Extract[string](data, "input_encoding"); ok {
		dict.InputEncoding = val
	}
}

func extractSegmentConfig(data map[string]any, seg *SegmentConfig) {
	if val, ok := utils.Extract[bool](data, "experimental"); ok {
		seg.Experimental = val
	}
	if val, ok := utils.ExtractInt(data, "max_live_states"); ok {
		seg.MaxLiveStates = val
	}
	if val, ok := utils.ExtractInt(data, "cache_size"); ok {
		seg.CacheSize = val
	}
}

func extractPipelineConfig(data map[string]any, p *PipelineConfig) {
	if val, ok := utils.Extract[bool](data, "chain_split"); ok {
		p.ChainSplit = val
	}
	if val, ok := utils.ExtractInt(data, "workers"); ok {
		p.Workers = val
	}
}

func extractOutputConfig(data map[string]any, out *OutputConfig) {
	if val, ok := utils.Extract[string](data, "db_path"); ok {
		out.DBPath = val
	}
	if val, ok := utils.Extract[bool](data, "json"); ok {
		out.JSON = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "max_input_len"); ok {
		server.MaxInputLen = val
	}
	if val, ok := utils.Extract[bool](data, "no_filter"); ok {
		server.NoFilter = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
