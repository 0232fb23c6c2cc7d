// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Learn   LearnConfig   `toml:"learn"`
	Mentor  MentorConfig  `toml:"mentor"`
	Remind  RemindConfig  `toml:"remind"`
}

// StorageConfig maps storage locations.
type StorageConfig struct {
	DBPath     *string `toml:"db-path"`
	LegacyPath *string `toml:"legacy-path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LearnConfig maps flashcard session settings.
type LearnConfig struct {
	Cards      *int     `toml:"cards"`
	FocusWeak  *bool    `toml:"focus-weak"`
	WeakFactor *float64 `toml:"weak-factor"`
}

// MentorConfig maps the chat completion provider settings.
type MentorConfig struct {
	BaseURL   *string `toml:"base-url"`
	Model     *string `toml:"model"`
	APIKeyEnv *string `toml:"api-key-env"`
}

// RemindConfig maps reminder settings.
type RemindConfig struct {
	At *string `toml:"at"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. Missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// StringOr returns *v or fallback when v is nil.
func StringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
