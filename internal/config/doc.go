// Package config loads runtime configuration for the GophGuard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   path of the application database (policy, permissions)
//	-v string   path of the credential vault database
//	-k string   path of the device key file protecting the vault
//	-l string   log level: debug, info, warn, error
//	-m int      failed PIN attempts before lockout
//	-r int      lockout reset interval (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "5m" or integer
// nanoseconds:
//
//	{
//	  "database_dsn": "data/gophguard.db",
//	  "vault_dsn": "data/vault.db",
//	  "device_key_path": "data/device.key",
//	  "pin_cooldown": "1s",
//	  "max_attempts": 3,
//	  "lockout_reset": "5m",
//	  "prompt_timeout": "30s",
//	  "log_level": "info"
//	}
//
// Invalid files or flag values panic: configuration errors are fatal at
// startup.
package config
