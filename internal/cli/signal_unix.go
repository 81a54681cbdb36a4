//go:build unix

package cli

import (
	"os"
	"syscall"
)

// foregroundSignals mark the process resuming after being stopped.
var foregroundSignals = []os.Signal{syscall.SIGCONT}
