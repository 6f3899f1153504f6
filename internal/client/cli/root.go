package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/devtv/devtv/internal/client/api"
	"github.com/devtv/devtv/internal/client/config"
	"github.com/devtv/devtv/internal/client/services"
	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/forms"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    *config.Config
	open   Opener
	reader *bufio.Reader
}

// NewRootCmd builds the devtv command tree. Flags are bound onto cfg, so
// anything set on the command line wins over the loaded configuration.
func NewRootCmd(cfg *config.Config, open Opener, in io.Reader) *cobra.Command {
	a := &app{cfg: cfg, open: open, reader: bufio.NewReader(in)}

	rootCmd := &cobra.Command{
		Use:   "devtv",
		Short: "devtv account client",
		Long: `devtv signs you up and in against a devtv server and keeps the
session locally so later commands run as the same user.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(in)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "devtv server base URL")
	pf.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "timeout for each server request")
	pf.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the local session database")
	// read earlier by config.LoadConfig; declared here so cobra accepts it
	pf.StringP("config", "c", "", "JSON config file")

	rootCmd.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.whoamiCmd(),
		a.logoutCmd(),
		a.statusCmd(),
		a.avatarCmd(),
	)
	return rootCmd
}

// Execute runs the command tree with ctx and prints the final error, if
// any, to stderr.
func Execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", describe(err))
	}
	return err
}

// withService opens the service, runs fn under the request timeout and
// closes it again.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, s AuthService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, closer, err := a.open(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("open local data: %w", err)
	}
	defer closer.Close()

	if a.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RequestTimeout)
		defer cancel()
	}
	return fn(ctx, s)
}

func (a *app) promptIfEmpty(cmd *cobra.Command, value *string, prompt string) error {
	if *value != "" {
		return nil
	}
	v, err := GetSimpleText(a.reader, prompt, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	*value = v
	return nil
}

// describe turns the errors users are expected to hit into short messages.
func describe(err error) string {
	var fe forms.FieldErrors
	var ve *api.ValidationError
	switch {
	case errors.As(err, &fe):
		return "invalid input: " + fe.Summary()
	case errors.As(err, &ve):
		return "server rejected input: " + ve.Summary()
	case errors.Is(err, api.ErrEmailTaken):
		return "this email is already registered"
	case errors.Is(err, api.ErrUnauthorized):
		return "invalid e-mail or password"
	case errors.Is(err, services.ErrNotSignedIn):
		return "not signed in, run `devtv login` first"
	case errors.Is(err, api.ErrNoAvatar):
		return "no avatar set, upload one with `devtv avatar set <file>`"
	case errors.Is(err, api.ErrUnavailable):
		return "server unavailable: " + err.Error()
	}
	return err.Error()
}

func wipe(pw []byte) { common.WipeByteArray(pw) }
