// Package cli is the interactive terminal front end of GophGuard.
//
// It opens local storage, wires the access control engine, the permission
// manager and the session controller, and runs a REPL. Commands that change
// the policy are only accepted after the adult has unlocked the session with
// the PIN or biometrics.
//
// SIGINT and SIGTERM save permission state and exit. SIGCONT (resuming a
// stopped process) is treated as returning to the foreground and re-checks
// the granted permissions.
package cli
