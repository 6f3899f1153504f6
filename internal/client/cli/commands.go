package cli

import (
	"context"
	"fmt"

	"github.com/devtv/devtv/internal/identity"
	"github.com/spf13/cobra"
)

func (a *app) registerCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.promptIfEmpty(cmd, &name, "Username"); err != nil {
				return err
			}
			if err := a.promptIfEmpty(cmd, &email, "Email"); err != nil {
				return err
			}
			password, err := GetPassword(cmd.OutOrStdout(), "Password")
			if err != nil {
				return err
			}
			defer wipe(password)

			return a.withService(cmd, func(ctx context.Context, s AuthService) error {
				su, err := s.Register(ctx, name, email, password)
				if err != nil {
					return err
				}
				printSignedIn(cmd, su)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.promptIfEmpty(cmd, &email, "Email"); err != nil {
				return err
			}
			password, err := GetPassword(cmd.OutOrStdout(), "Password")
			if err != nil {
				return err
			}
			defer wipe(password)

			return a.withService(cmd, func(ctx context.Context, s AuthService) error {
				su, err := s.Login(ctx, email, password)
				if err != nil {
					return err
				}
				printSignedIn(cmd, su)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, s AuthService) error {
				su, err := s.WhoAmI(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "id:       %s\n", su.User.ID)
				fmt.Fprintf(out, "name:     %s\n", su.User.Name)
				fmt.Fprintf(out, "email:    %s\n", su.User.Email)
				if su.User.EmailVerified != nil {
					fmt.Fprintf(out, "verified: %s\n", su.User.EmailVerified.Format("2006-01-02"))
				}
				fmt.Fprintf(out, "expires:  %s\n", su.Session.Expires.Format("2006-01-02 15:04"))
				return nil
			})
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, s AuthService) error {
				if err := s.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, s AuthService) error {
				if err := s.Ping(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", a.cfg.ServerURL)
				return nil
			})
		},
	}
}

func (a *app) avatarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avatar",
		Short: "Manage the profile picture",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <file>",
		Short: "Upload an image as the profile picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, s AuthService) error {
				key, err := s.SetAvatar(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Avatar stored as %s\n", key)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print a temporary download link for the profile picture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, s AuthService) error {
				url, err := s.AvatarURL(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	})

	return cmd
}

func printSignedIn(cmd *cobra.Command, su *identity.SessionAndUser) {
	who := su.User.Name
	if who == "" {
		who = su.User.Email
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", who)
}
