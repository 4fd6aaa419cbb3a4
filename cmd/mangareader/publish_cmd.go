package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCmd() *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "publish SLUG TITLE",
		Short: "Publish the next chapter of a manga",
		Args:  cobra.ExactArgs(2),
		Long: `Publish the next chapter of a manga.

Readers who marked the manga as favorite get a notification.`,
		Example: `  mangareader publish berserk "The Falcon Returns" --pages 22`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			number, err := app.catalog.PublishChapter(cmd.Context(), args[0], args[1], pages)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %s chapter %d\n", args[0], number)
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 18, "Number of pages")

	return cmd
}
