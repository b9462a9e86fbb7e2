package main

import (
	"github.com/spf13/cobra"

	"crelay/internal/api"
	"crelay/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show relay server info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if err := writePlain("version: %s\n", resp.Version); err != nil {
					return err
				}
				if err := writePlain("protocol_version: %s\n", resp.ProtocolVersion); err != nil {
					return err
				}
				if err := writePlain("uptime: %ds\n", resp.UptimeSeconds); err != nil {
					return err
				}
				if err := writePlain("consignments: %d\n", resp.Consignments); err != nil {
					return err
				}
				return writePlain("media: %d\n", resp.Media)
			})
		},
	}
}
