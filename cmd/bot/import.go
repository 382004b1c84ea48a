package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatcmd/internal/app/runtime"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load custom commands and viewer groups from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runtime.Import(cmd.Context(), cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d commands; %d groups\n", res.Created, res.Updated, res.Groups)
		return nil
	},
}
