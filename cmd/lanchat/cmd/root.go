// Package cmd is the headless LanChat client: every command restores the
// device session, runs one action and persists the result.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/templui/lanchat/internal/app"
	"github.com/templui/lanchat/internal/config"
	"github.com/templui/lanchat/internal/logger"
	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/navigation"
)

type env struct {
	app    *app.App
	client *app.Client
	flush  func()
}

// Execute runs the client with os.Args and releases everything it opened,
// whether or not the command succeeded.
func Execute(ctx context.Context) error {
	root, e := newRoot()
	defer func() {
		err := e.close()
		if err != nil {
			slog.Error("failed to close client", "error", err)
		}
	}()
	return root.ExecuteContext(ctx)
}

func newRoot() (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:          "lanchat",
		Short:        "Headless LanChat client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd)
		},
	}

	root.AddCommand(
		loginCmd(e),
		registerCmd(e),
		googleCmd(e),
		verifyCmd(e),
		resendCmd(e),
		profileCmd(e),
		logoutCmd(e),
		statusCmd(e),
		usersCmd(e),
		translateCmd(e),
	)
	return root, e
}

func (e *env) open(cmd *cobra.Command) error {
	cfg := config.Load()
	e.flush = logger.Init(cmd.ErrOrStderr(), cfg.IsDevelopment(), cfg.SentryDSN)

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	client, err := a.NewClient(cmd.Context(), func(url string) error {
		fmt.Fprintf(out, "Open this URL to continue with Google:\n\n  %s\n\n", url)
		return nil
	})
	if err != nil {
		a.Close()
		return err
	}

	e.app = a
	e.client = client
	return nil
}

func (e *env) close() error {
	var errs []error
	if e.client != nil {
		errs = append(errs, e.client.Close())
		e.client = nil
	}
	if e.app != nil {
		errs = append(errs, e.app.Close())
		e.app = nil
	}
	if e.flush != nil {
		e.flush()
		e.flush = nil
	}
	return errors.Join(errs...)
}

func printSession(w io.Writer, e *env) {
	s := e.client.Session.Session()
	fmt.Fprintf(w, "state:  %s\n", s.State())
	fmt.Fprintf(w, "screen: %s\n", screenName(e.client.Router.Current()))
	if s.User != nil {
		fmt.Fprintf(w, "user:   %s <%s> (%s)\n", s.User.Name, s.User.Email, s.User.ID)
	}
	if s.NeedsEmailVerification && s.VerificationEmail != "" {
		fmt.Fprintf(w, "verify: code sent to %s\n", s.VerificationEmail)
	}
}

func screenName(region navigation.Region) string {
	if region == navigation.RegionNone {
		return "-"
	}
	return string(region)
}

func printProfile(w io.Writer, p *model.Profile) {
	status := "offline"
	if p.IsOnline {
		status = "online"
	}
	fmt.Fprintf(w, "%-24s %s %s", p.Name, p.NativeLanguage.Flag, p.NativeLanguage.Code)
	for _, l := range p.LearningLanguages {
		fmt.Fprintf(w, " +%s", l.Code)
	}
	if p.City != "" || p.Country != "" {
		fmt.Fprintf(w, "  %s, %s", p.City, p.Country)
	}
	fmt.Fprintf(w, "  [%s]  %s\n", status, p.ID)
}
