package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
	"github.com/dmitrijs2005/gophguard/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" from "zero", so a partial file only overrides what it names.
type JsonConfig struct {
	DatabaseDSN   *string         `json:"database_dsn"`
	VaultDSN      *string         `json:"vault_dsn"`
	DeviceKeyPath *string         `json:"device_key_path"`
	PinCooldown   *timex.Duration `json:"pin_cooldown"`
	MaxAttempts   *int            `json:"max_attempts"`
	LockoutReset  *timex.Duration `json:"lockout_reset"`
	PromptTimeout *timex.Duration `json:"prompt_timeout"`
	LogLevel      *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config in args.
// It panics on read or decode errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.VaultDSN != nil {
		cfg.VaultDSN = *jc.VaultDSN
	}
	if jc.DeviceKeyPath != nil {
		cfg.DeviceKeyPath = *jc.DeviceKeyPath
	}
	if jc.PinCooldown != nil {
		cfg.PinCooldown = jc.PinCooldown.Duration
	}
	if jc.MaxAttempts != nil {
		cfg.MaxAttempts = *jc.MaxAttempts
	}
	if jc.LockoutReset != nil {
		cfg.LockoutReset = jc.LockoutReset.Duration
	}
	if jc.PromptTimeout != nil {
		cfg.PromptTimeout = jc.PromptTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
