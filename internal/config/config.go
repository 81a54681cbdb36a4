package config

import (
	"os"
	"time"
)

// Config holds runtime settings for GophGuard.
type Config struct {
	DatabaseDSN   string
	VaultDSN      string
	DeviceKeyPath string

	// PinCooldown is the minimum spacing between two PIN checks.
	PinCooldown time.Duration
	// MaxAttempts failed PIN checks put the session into lockout.
	MaxAttempts int
	// LockoutReset is how often the failed-attempt counter is cleared.
	LockoutReset time.Duration
	// PromptTimeout bounds a single biometric or notification prompt.
	PromptTimeout time.Duration

	LogLevel string
}

// LoadDefaults populates c with the values used when nothing is configured.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "data/gophguard.db"
	c.VaultDSN = "data/vault.db"
	c.DeviceKeyPath = "data/device.key"
	c.PinCooldown = 1 * time.Second
	c.MaxAttempts = 3
	c.LockoutReset = 5 * time.Minute
	c.PromptTimeout = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the JSON file (if any), then
// command-line flags, and panics if the result is invalid.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	validate(cfg)
	return cfg
}
