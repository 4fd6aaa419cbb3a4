package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-freshcache/internal/catalog"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a catalog fixture into an empty database",
		Args:  cobra.NoArgs,
		Example: `  mangareader seed --db /tmp/catalog.db
  mangareader seed --file fixtures/catalog.json --db /tmp/catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := catalog.DefaultSeed()
			if err != nil {
				return err
			}
			if file != "" {
				if data, err = catalog.ReadSeed(file); err != nil {
					return err
				}
			}

			logger, closer, err := newLogger(cfg.LogFile, cfg.Verbose)
			if err != nil {
				return err
			}
			defer closer.Close()

			if dir := parentDir(cfg.DBPath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create data directory: %w", err)
				}
			}
			cat, err := catalog.Open(cmd.Context(), cfg.DBPath, catalog.Options{Logger: logger})
			if err != nil {
				return err
			}
			defer cat.Close()

			empty, err := cat.Empty(cmd.Context())
			if err != nil {
				return err
			}
			if !empty {
				return fmt.Errorf("catalog %s is not empty", cfg.DBPath)
			}
			if err := cat.Seed(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d manga into %s\n", len(data.Manga), cfg.DBPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON fixture (default: the bundled demo catalog)")

	return cmd
}
