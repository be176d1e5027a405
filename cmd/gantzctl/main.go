// Command gantzctl browses and administers a gantz site from the terminal.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/pkg/client"
	"github.com/gantzhq/gantz/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServer = "http://localhost:8080"

// app is what every command works with: the API client primed with the saved
// token and the viewer that token resolves to.
type app struct {
	client  *client.Client
	saved   *savedSession
	store   *sessionFile
	session *gate.Session
}

func (a *app) viewer() gate.Viewer { return a.session.Viewer() }

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
}

func newApp(ctx context.Context) (*app, error) {
	store, err := defaultSessionFile()
	if err != nil {
		return nil, err
	}
	saved, err := store.Load()
	if err != nil {
		return nil, err
	}
	server := strings.TrimSpace(viper.GetString("server"))
	if server == "" {
		server = defaultServer
	}
	c := client.New(server, &http.Client{Timeout: viper.GetDuration("timeout")})
	var me gate.Viewer
	if saved.Server == server && saved.AccessToken != "" {
		c.SetToken(saved.AccessToken)
		me = resume(ctx, c, store, saved)
	}

	// Without GANTZ_ADMIN_EMAIL the admin address is learned from the server.
	admin := strings.TrimSpace(viper.GetString("admin_email"))
	if admin == "" && me.Admin {
		admin = me.Email
	}
	s := gate.NewSession(ctx, gate.New(admin, c), c.Token())
	return &app{client: c, saved: saved, store: store, session: s}, nil
}

// resume checks the saved access token. Once the server stops accepting it, the
// saved refresh token is spent for a new pair, which replaces the saved one.
func resume(ctx context.Context, c *client.Client, store *sessionFile, saved *savedSession) gate.Viewer {
	v, err := c.Me(ctx)
	if err != nil || !v.Anonymous() || saved.RefreshToken == "" {
		return v
	}
	g, err := c.Refresh(ctx, saved.RefreshToken)
	if err != nil {
		logger.Debugf("saved session could not be refreshed: %v", err)
		return v
	}
	saved.AccessToken, saved.RefreshToken = g.AccessToken, g.RefreshToken
	if err := store.Save(saved); err != nil {
		logger.Warnf("save refreshed session: %v", err)
	}
	if v, err = c.Me(ctx); err != nil {
		return gate.Viewer{}
	}
	return v
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gantzctl",
		Short:         "Browse and manage a gantz site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.Init(viper.GetString("log_level"))
		},
	}
	root.PersistentFlags().String("server", defaultServer, "site base URL (GANTZ_SERVER)")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().String("log-level", "warn", "log level (GANTZ_LOG_LEVEL)")
	_ = viper.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newHomeCmd(),
		newPhotosCmd(),
		newMemosCmd(),
		newPeopleCmd(),
	)
	return root
}

// withApp runs fn with a ready app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

func main() {
	viper.SetEnvPrefix("gantz")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
