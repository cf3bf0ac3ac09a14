//go:build unix

package signals

import (
	"os"
	"syscall"
)

// ShutdownSignals lists the signals that should stop the daemon gracefully.
// SIGTERM matters on Unix: it is what process managers and container runtimes
// send first.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
