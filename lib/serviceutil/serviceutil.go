package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Returns a context that will live until Ctrl+C is pressed, pressing it a second
// time kills the process.
func SignalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		slog.Warn("interrupted, stopping after the current request")
		cancel()
		<-sigs
		os.Exit(130)
	}()

	return ctx
}

// Fatal logs the error and exits with status 1.
func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
