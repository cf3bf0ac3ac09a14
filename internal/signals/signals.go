//go:build !unix

package signals

import "os"

// ShutdownSignals lists the signals that should stop the daemon gracefully.
// Outside Unix only Interrupt is portable.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
