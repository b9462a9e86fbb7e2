package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"crelay/internal/api"
	"crelay/internal/config"
)

func newConsignmentCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consignment",
		Short: "Upload or fetch consignments",
	}

	cmd.AddCommand(newConsignmentPostCmd(cfg))
	cmd.AddCommand(newConsignmentGetCmd(cfg))
	return cmd
}

func newConsignmentPostCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "post <blinded_utxo> <file>",
		Short: "Upload a consignment file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			blindedUTXO, path := args[0], args[1]

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			return withClient(cfg, func(client *api.Client) error {
				if err := client.PostConsignment(cmd.Context(), blindedUTXO, filepath.Base(path), f); err != nil {
					return err
				}
				return writePlain("uploaded consignment for %s\n", blindedUTXO)
			})
		},
	}
}

func newConsignmentGetCmd(cfg *config.Config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <blinded_utxo>",
		Short: "Fetch a consignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				data, err := client.GetConsignment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeArtifact(outPath, data)
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// writeArtifact writes fetched bytes to the given path, or raw to
// stdout when no path is set.
func writeArtifact(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
