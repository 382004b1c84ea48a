package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatcmd/internal/app/runtime"
	consoleadapter "chatcmd/internal/interface/adapters/console"
)

var consoleUser string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Type chat messages as the broadcaster and see the bot's replies",
	Long: `Reads one chat message per line from stdin and prints replies to
stdout. Changes are stored in the configured database.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleUser, "user", "broadcaster", "Username the messages are sent as")
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := consoleadapter.NewAdapter(cmd.InOrStdin(), cmd.OutOrStdout(), consoleUser)

	run, err := runtime.Start(ctx, runtime.Options{
		Config:        cfg,
		Console:       console,
		SkipPlatforms: true,
		SkipHTTP:      true,
	})
	if err != nil {
		return err
	}

	runErr := console.Start(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(runErr, run.Stop())
}
