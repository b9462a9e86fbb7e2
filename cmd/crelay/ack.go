package main

import (
	"github.com/spf13/cobra"

	"crelay/internal/api"
	"crelay/internal/config"
)

func newAckCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <blinded_utxo>",
		Short: "Acknowledge a consignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if err := client.Ack(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writePlain("acked %s\n", args[0])
			})
		},
	}
}

func newNackCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "nack <blinded_utxo>",
		Short: "Reject a consignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if err := client.Nack(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writePlain("nacked %s\n", args[0])
			})
		},
	}
}

func newAckStatusCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ack-status <blinded_utxo>",
		Short: "Show the acknowledgment state of a consignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.AckStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				switch {
				case resp.Ack == nil:
					return writePlain("pending\n")
				case *resp.Ack:
					return writePlain("acked\n")
				default:
					return writePlain("nacked\n")
				}
			})
		},
	}
}
