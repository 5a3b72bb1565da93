// Package app provides the Loom server application.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/loomhq/loom/cmd/loom-server/app/options"
	"github.com/loomhq/loom/pkg/app"
)

const (
	// Name is the name of the application.
	Name = "loom-server"

	commandDesc = `Loom document processing server

Loom runs user-defined transformers over document collections via
declarative bindings, landing the results in queryable indexes.

This server provides:
  - Collection, document, transformer, index, and binding management
  - Asynchronous binding execution with version-fenced commits
  - Backfill and cleanup reconciliation
  - Built-in counting and Ollama embedding transformers`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		ctx := setupSignalContext()

		server, err := opts.Config().NewServer(ctx)
		if err != nil {
			return err
		}
		return server.Run(ctx)
	}
}

// setupSignalContext returns a context cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
