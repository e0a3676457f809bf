package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// signalContext returns a context that is cancelled on the first SIGINT or
// SIGTERM, or when stop is called. After the first signal, signals are no
// longer captured and a second one terminates the process.
func signalContext(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			fmt.Fprintf(os.Stderr, "\nReceived %s, stopping remote calls\n", s)
			fmt.Fprintf(os.Stderr, "Send SIGINT (ctrl-c) again to exit immediately\n")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
