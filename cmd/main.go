// Command triplecrown links the results of a race series and ranks the
// runners who finished every race.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("triplecrown: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
