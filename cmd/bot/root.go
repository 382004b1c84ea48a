package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatcmd/internal/infrastructure/config"
	"chatcmd/internal/infrastructure/logging"
)

var Version = "dev"

var (
	logLevel  string
	logPretty bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chatcmd",
	Short: "Chat bot with custom commands managed from chat",
	Long: `chatcmd connects to Twitch and Kick chat and lets the broadcaster and
moderators create and edit custom commands with "!command <op> ...".

Run 'chatcmd serve' to join chat, 'chatcmd console' to try commands locally,
or 'chatcmd import <file>' to load commands from a YAML seed file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-pretty") {
			loaded.LogPretty = logPretty
		}

		logging.Init(logging.Config{
			Level:  logging.ParseLevel(loaded.LogLevel),
			Output: os.Stderr,
			Pretty: loaded.LogPretty,
		})
		cfg = loaded
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "Human readable log output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("chatcmd %s\n", Version))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(importCmd)
}
