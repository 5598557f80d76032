package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	PollIntervalMS int `json:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PageSize       int `json:"page_size" mapstructure:"page_size"`
	MaxItemSize    int `json:"max_item_size_bytes" mapstructure:"max_item_size_bytes"`

	MaxHistoryItems int `json:"max_history_items" mapstructure:"max_history_items"`
	MaxHistoryDays  int `json:"max_history_days" mapstructure:"max_history_days"`

	LogFormat string `json:"log_format" mapstructure:"log_format"`
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
}

func Default() *Config {
	return &Config{
		PollIntervalMS: 500,
		PageSize:       50,
		MaxItemSize:    10 * 1024 * 1024, // 10MB

		MaxHistoryItems: 1000,
		MaxHistoryDays:  30,

		LogFormat: "auto",
		LogLevel:  "info",
	}
}

// Load merges defaults, the JSON config file, CLIPVAULT_* env vars and any
// flags already bound into v, in that precedence order, then validates.
// A missing config file is not an error; defaults apply.
func Load(v *viper.Viper) (*Config, error) {
	for key, val := range map[string]any{
		"poll_interval_ms":    500,
		"page_size":           50,
		"max_item_size_bytes": 10 * 1024 * 1024,
		"max_history_items":   1000,
		"max_history_days":    30,
		"log_format":          "auto",
		"log_level":           "info",
	} {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".clipvault")
	}

	cfg.validate()

	return cfg, nil
}

// Save writes the effective configuration back to path as indented JSON.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "history.db")
}

func (c *Config) validate() {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 500
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.MaxItemSize <= 0 {
		c.MaxItemSize = 10 * 1024 * 1024
	}
	if c.MaxHistoryItems <= 0 {
		c.MaxHistoryItems = 1000
	}
	if c.MaxHistoryDays <= 0 {
		c.MaxHistoryDays = 30
	}
}
