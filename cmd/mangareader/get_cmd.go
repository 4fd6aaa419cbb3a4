package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var (
		repeat bool
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Load a reader path and print it as JSON",
		Args:  cobra.ExactArgs(1),
		Long: `Load a reader path through the cache and print the page as JSON.

Paths look like the reader's routes: "/", "/?page=2", "/manga/berserk",
"/manga/berserk/chapter/3", "/catalog?genre=seinen", "/search?q=saga",
"/rankings?period=all", "/favorites", "/notifications".`,
		Example: `  mangareader get /manga/berserk
  mangareader get /favorites -u reader-1
  mangareader get / --repeat -v     # second load is a cache hit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			resolver := app.container.Resolver()
			start := time.Now()
			page, err := resolver.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.logger.Info("loaded", "path", args[0], "took", time.Since(start))

			if repeat {
				start = time.Now()
				if page, err = resolver.Load(cmd.Context(), args[0]); err != nil {
					return err
				}
				app.logger.Info("loaded again", "path", args[0], "took", time.Since(start))
			}

			var out []byte
			if pretty {
				out, err = json.MarshalIndent(page, "", "  ")
			} else {
				out, err = json.Marshal(page)
			}
			if err != nil {
				return fmt.Errorf("encode page: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&repeat, "repeat", false, "Load the path a second time")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the JSON output")

	return cmd
}
