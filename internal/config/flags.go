package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
)

// parseFlags populates cfg from the short flags documented in the package
// doc. Only those flags are looked at (see flagx.FilterArgs). It panics on
// malformed values. Flags that are not passed leave cfg untouched.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, "-d", "-v", "-k", "-l", "-m", "-r")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "application database path")
	fs.StringVar(&cfg.VaultDSN, "v", cfg.VaultDSN, "credential vault database path")
	fs.StringVar(&cfg.DeviceKeyPath, "k", cfg.DeviceKeyPath, "device key file path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&cfg.MaxAttempts, "m", cfg.MaxAttempts, "failed PIN attempts before lockout")
	lockoutReset := fs.Int("r", 0, "lockout reset interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -r is whole seconds; a finer JSON value survives unless -r is given
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "r" {
			cfg.LockoutReset = time.Duration(*lockoutReset) * time.Second
		}
	})
}

// validate panics if the merged configuration cannot be used.
func validate(cfg *Config) {
	if cfg.MaxAttempts < 1 {
		panic(fmt.Sprintf("max attempts must be positive, got %d", cfg.MaxAttempts))
	}
	if cfg.LockoutReset <= 0 {
		panic(fmt.Sprintf("lockout reset must be positive, got %s", cfg.LockoutReset))
	}
	if cfg.PromptTimeout <= 0 {
		panic(fmt.Sprintf("prompt timeout must be positive, got %s", cfg.PromptTimeout))
	}
	if cfg.PinCooldown < 0 {
		panic(fmt.Sprintf("pin cooldown must not be negative, got %s", cfg.PinCooldown))
	}
}
