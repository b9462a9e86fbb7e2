package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crelay/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "crelay",
		Short: "Crelay is a relay server for blinded consignment and media artifacts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newInfoCmd(cfg, &jsonOutput),
		newConsignmentCmd(cfg),
		newMediaCmd(cfg),
		newAckCmd(cfg),
		newNackCmd(cfg),
		newAckStatusCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
	)

	return cmd
}
