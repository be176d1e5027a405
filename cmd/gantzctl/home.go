package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newHomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the last week of photos and memos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				l, _, err := a.client.Home(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "photos (%d)\n", len(l.Photos))
				for i, p := range l.Photos {
					fmt.Fprintln(out, photoLine(i, p))
				}
				fmt.Fprintf(out, "memos (%d)\n", len(l.Memos))
				for _, m := range l.Memos {
					fmt.Fprintf(out, "  %s  %s\n", m.CreatedAt.Local().Format("2006-01-02"), m.Title)
				}
				if l.EmbedURL != "" {
					fmt.Fprintln(out, "video:", l.EmbedURL)
				}
				for _, link := range l.Links {
					fmt.Fprintf(out, "%s: %s\n", link.Label, link.Href)
				}
				return nil
			})
		},
	}
}
