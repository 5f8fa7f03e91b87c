// Package config handles configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	// MacroFile is the path to the macro.json recording persisted
	// between runs (spec.md section 6).
	MacroFile string `mapstructure:"macro_file"`

	// PostSimulateDelayMs is the delay applied after simulating a key
	// event during playback, giving the OS input pipeline time to
	// deliver it before the player moves on (spec.md section 4.3).
	PostSimulateDelayMs int `mapstructure:"post_simulate_delay_ms"`

	// PostYieldReplayDelayMs is the delay applied after each missed
	// event replayed when playback resumes from a YieldFocus event.
	PostYieldReplayDelayMs int `mapstructure:"post_yield_replay_delay_ms"`

	// GrabDeadlineMs bounds how long the Listener's grab hook may take
	// to decide Deliver/Swallow before the platform adapter passes the
	// event through (spec.md section 4.1).
	GrabDeadlineMs int `mapstructure:"grab_deadline_ms"`

	// FocusPollIntervalMs controls how often the platform layer polls
	// for foreground window changes on platforms with no native
	// focus-change notification.
	FocusPollIntervalMs int `mapstructure:"focus_poll_interval_ms"`

	// AlwaysOnTop is the initial state of the always-on-top checkbox.
	// The setting is only stored and displayed; it does not change the
	// stacking of the terminal window.
	AlwaysOnTop bool `mapstructure:"always_on_top"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MacroFile:              defaultMacroFile(),
	PostSimulateDelayMs:    16,
	PostYieldReplayDelayMs: 20,
	GrabDeadlineMs:         200,
	FocusPollIntervalMs:    150,
	AlwaysOnTop:            false,
}

var cfg *Config

// Init initializes the configuration system.
func Init() error {
	viper.SetConfigName("powerkey")
	viper.SetConfigType("toml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "powerkey"))
	}
	viper.AddConfigPath(".")

	viper.SetDefault("macro_file", DefaultConfig.MacroFile)
	viper.SetDefault("post_simulate_delay_ms", DefaultConfig.PostSimulateDelayMs)
	viper.SetDefault("post_yield_replay_delay_ms", DefaultConfig.PostYieldReplayDelayMs)
	viper.SetDefault("grab_deadline_ms", DefaultConfig.GrabDeadlineMs)
	viper.SetDefault("focus_poll_interval_ms", DefaultConfig.FocusPollIntervalMs)
	viper.SetDefault("always_on_top", DefaultConfig.AlwaysOnTop)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration.
func Get() *Config {
	if cfg == nil {
		defaults := DefaultConfig
		return &defaults
	}
	return cfg
}

// Save saves the current configuration to file.
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() string {
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./powerkey.toml"
	}

	return filepath.Join(home, ".config", "powerkey", "powerkey.toml")
}

// PostSimulateDelay returns the configured post-simulate delay as a
// time.Duration.
func (c *Config) PostSimulateDelay() time.Duration {
	return time.Duration(c.PostSimulateDelayMs) * time.Millisecond
}

// PostYieldReplayDelay returns the configured post-yield replay delay
// as a time.Duration.
func (c *Config) PostYieldReplayDelay() time.Duration {
	return time.Duration(c.PostYieldReplayDelayMs) * time.Millisecond
}

// GrabDeadline returns the configured grab-hook deadline as a
// time.Duration.
func (c *Config) GrabDeadline() time.Duration {
	return time.Duration(c.GrabDeadlineMs) * time.Millisecond
}

// FocusPollInterval returns the configured focus-poll interval as a
// time.Duration.
func (c *Config) FocusPollInterval() time.Duration {
	return time.Duration(c.FocusPollIntervalMs) * time.Millisecond
}

func defaultMacroFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "macro.json"
	}
	return filepath.Join(home, ".local", "share", "powerkey", "macro.json")
}
