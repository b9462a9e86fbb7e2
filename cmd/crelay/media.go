package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"crelay/internal/api"
	"crelay/internal/config"
)

func newMediaCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Upload or fetch media attachments",
	}

	cmd.AddCommand(newMediaPostCmd(cfg))
	cmd.AddCommand(newMediaGetCmd(cfg))
	return cmd
}

func newMediaPostCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "post <attachment_id> <file>",
		Short: "Upload a media file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attachmentID, path := args[0], args[1]

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			return withClient(cfg, func(client *api.Client) error {
				if err := client.PostMedia(cmd.Context(), attachmentID, filepath.Base(path), f); err != nil {
					return err
				}
				return writePlain("uploaded media for %s\n", attachmentID)
			})
		},
	}
}

func newMediaGetCmd(cfg *config.Config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <attachment_id>",
		Short: "Fetch a media attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				data, err := client.GetMedia(cmd.Context(), args[0])
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
