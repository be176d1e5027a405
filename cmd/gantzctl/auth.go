package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if password == "" {
					fmt.Fprint(cmd.ErrOrStderr(), "password: ")
					line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					if err != nil && line == "" {
						return fmt.Errorf("read password: %w", err)
					}
					password = strings.TrimRight(line, "\r\n")
				}
				g, err := a.client.Login(ctx, email, password)
				if err != nil {
					return err
				}
				saved := &savedSession{
					Server:       strings.TrimSpace(viper.GetString("server")),
					Email:        email,
					AccessToken:  g.AccessToken,
					RefreshToken: g.RefreshToken,
				}
				if err := a.store.Save(saved); err != nil {
					return fmt.Errorf("save session: %w", err)
				}
				v := a.session.SetToken(ctx, g.AccessToken)
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s%s\n", email, adminSuffix(v.Admin))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", os.Getenv("GANTZ_EMAIL"), "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func adminSuffix(admin bool) string {
	if admin {
		return " (admin)"
	}
	return ""
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var err error
				if a.client.Token() != "" || a.saved.RefreshToken != "" {
					err = a.client.Logout(ctx, a.saved.RefreshToken)
				}
				if cerr := a.store.Clear(); cerr != nil {
					return cerr
				}
				a.session.SetToken(ctx, "")
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "server sign-out failed: %v\n", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app) error {
				v := a.viewer()
				if v.Anonymous() {
					fmt.Fprintln(cmd.OutOrStdout(), "anonymous")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", v.Email, adminSuffix(v.Admin))
				return nil
			})
		},
	}
}
