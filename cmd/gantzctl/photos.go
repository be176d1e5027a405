package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gantzhq/gantz/internal/feed"
	"github.com/gantzhq/gantz/pkg/client"
	"github.com/spf13/cobra"
)

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "photos", Short: "Browse and manage the gallery"}
	cmd.AddCommand(newPhotosBrowseCmd(), newPhotosUploadCmd(), newPhotosCaptionCmd(), newPhotosDeleteCmd())
	return cmd
}

func newPhotosBrowseCmd() *cobra.Command {
	var screen, margin, pageSize int
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through photos, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				f := feed.New(a.client.PhotoFetcher(), pageSize)
				defer f.Close()
				b := newBrowser(f, a.client, a.viewer, cmd.OutOrStdout(), screen, margin)
				return b.run(ctx, cmd.InOrStdin())
			})
		},
	}
	cmd.Flags().IntVar(&screen, "screen", 10, "rows shown per Enter")
	cmd.Flags().IntVar(&margin, "margin", 10, "rows of lookahead before the next page loads")
	cmd.Flags().IntVar(&pageSize, "page-size", feed.DefaultPageSize, "photos per request")
	return cmd
}

func newPhotosUploadCmd() *cobra.Command {
	var caption, takenAt string
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a photo (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taken *time.Time
			if takenAt != "" {
				t, err := time.Parse(time.RFC3339, takenAt)
				if err != nil {
					return fmt.Errorf("--taken-at: %w", err)
				}
				taken = &t
			}
			fh, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer fh.Close()

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !a.viewer().Admin {
					return fmt.Errorf("photos upload: admin only, run gantzctl login first")
				}
				p, err := a.client.UploadPhoto(ctx, client.Upload{Name: filepath.Base(args[0]), Body: fh}, caption, taken)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s -> %s\n", p.ID, p.ImageURL)

				f := feed.New(a.client.PhotoFetcher(), 0)
				defer f.Close()
				if err := f.Inserted(ctx); err != nil {
					return err
				}
				for i, p := range f.Snapshot().Items {
					fmt.Fprintln(cmd.OutOrStdout(), photoLine(i, p))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&caption, "caption", "c", "", "caption")
	cmd.Flags().StringVar(&takenAt, "taken-at", "", "when the photo was taken (RFC 3339)")
	return cmd
}

func newPhotosCaptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "caption ID [TEXT...]",
		Short: "Set or clear a caption (admin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, err := a.client.SetCaption(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), photoLine(0, *p))
				return nil
			})
		},
	}
}

func newPhotosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a photo record (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.client.DeletePhoto(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			})
		},
	}
}

var _ photoAdmin = (*client.Client)(nil)
