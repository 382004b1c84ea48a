package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatcmd/internal/app/runtime"
	"chatcmd/internal/infrastructure/logging"
)

var serveNoHTTP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Join the configured chats and serve the UI API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoHTTP, "no-http", false, "Do not start the websocket/HTTP server")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := runtime.Start(ctx, runtime.Options{
		Config:   cfg,
		SkipHTTP: serveNoHTTP,
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	return run.Stop()
}
