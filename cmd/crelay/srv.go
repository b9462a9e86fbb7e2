package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"crelay/internal/blobstore"
	"crelay/internal/config"
	"crelay/internal/server"
	"crelay/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the crelay API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			bs, err := blobstore.NewLocalCAS(filepath.Join(cfg.DataDir, "blobs"))
			if err != nil {
				return err
			}

			srv := server.New(addr, st, bs, version, logger)
			srv.Configure(server.Options{
				MaxUploadBytes:     cfg.Relay.MaxUploadBytes,
				MultipartMaxMemory: cfg.Relay.MultipartMaxMemory,
			})
			return srv.ListenAndServe()
		},
	}
}
