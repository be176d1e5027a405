package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newMemosCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "memos", Short: "Read and write memos and comments"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List memos, newest first",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					memos, err := a.client.Memos(ctx)
					if err != nil {
						return err
					}
					if len(memos) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "no memos yet")
					}
					for _, m := range memos {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", m.ID, m.CreatedAt.Local().Format("2006-01-02"), m.Title)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "create TITLE BODY...",
			Short: "Write a memo (admin)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					m, err := a.client.CreateMemo(ctx, args[0], strings.Join(args[1:], " "))
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "created", m.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a memo and its comments (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					if err := a.client.DeleteMemo(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "comments MEMO_ID",
			Short: "Show a memo and its comments, oldest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					m, err := a.client.Memo(ctx, args[0])
					if err != nil {
						return err
					}
					cs, err := a.client.Comments(ctx, args[0])
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s\n\n%s\n\n", m.Title, m.Body)
					for _, c := range cs {
						id := ""
						if a.viewer().Admin {
							id = " [" + c.ID + "]"
						}
						fmt.Fprintf(out, "%s%s: %s\n", c.DisplayName, id, c.Body)
					}
					return nil
				})
			},
		},
		newCommentCmd(),
		&cobra.Command{
			Use:   "delete-comment ID",
			Short: "Delete a comment (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					if err := a.client.DeleteComment(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func newCommentCmd() *cobra.Command {
	var nickname string
	cmd := &cobra.Command{
		Use:   "comment MEMO_ID BODY...",
		Short: "Comment on a memo; no sign-in needed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				c, err := a.client.PostComment(ctx, args[0], nickname, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "posted as %s\n", c.DisplayName)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&nickname, "nickname", "n", "", "name to show (anonymous when empty)")
	return cmd
}
