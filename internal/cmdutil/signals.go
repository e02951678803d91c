package cmdutil

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals serve treats as a graceful shutdown
// request.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
