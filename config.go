package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// AppConfig holds persistent installer-host settings.
type AppConfig struct {
	BundleName    string `json:"bundleName"`
	LogLevel      string `json:"logLevel"`
	SplashEnabled *bool  `json:"splashEnabled"` // nil = true (default on)
}

// IsSplashEnabled returns whether the splash window should be shown
// at all (default true).
func (c *AppConfig) IsSplashEnabled() bool {
	return c.SplashEnabled == nil || *c.SplashEnabled
}

var (
	appDataDir     string
	appDataDirOnce sync.Once
)

// DefaultConfig returns config with default values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		LogLevel: "error",
	}
}

// AppDataDir returns the path to ~/.omaha/, creating it if needed.
func AppDataDir() string {
	appDataDirOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			// Fallback to exe directory
			if exe, err2 := os.Executable(); err2 == nil {
				appDataDir = filepath.Dir(exe)
			} else {
				appDataDir = "."
			}
			return
		}
		appDataDir = filepath.Join(home, ".omaha")
		os.MkdirAll(appDataDir, 0755)
	})
	return appDataDir
}

// DataPath returns the full path for a file inside the data directory.
func DataPath(elem ...string) string {
	parts := append([]string{AppDataDir()}, elem...)
	return filepath.Join(parts...)
}

func configPath() string {
	return DataPath("config.json")
}

// LoadConfig reads config from ~/.omaha/config.json. Returns default
// config if the file doesn't exist or can't be parsed.
func LoadConfig() *AppConfig {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath())
	if err != nil {
		return cfg
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig()
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}

	return cfg
}

// SaveConfig writes the config to ~/.omaha/config.json.
func SaveConfig(cfg *AppConfig) error {
	os.MkdirAll(AppDataDir(), 0755)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath(), data, 0644)
}
