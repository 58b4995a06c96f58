package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

type userOutput struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func toUserOutput(u model.User) userOutput {
	return userOutput{ID: u.ID, Username: u.Username, Email: u.Email, AvatarURL: u.AvatarURL}
}

func printUser(w io.Writer, u model.User) {
	name := u.Username
	if name == "" {
		name = "(unknown)"
	}
	fmt.Fprintf(w, "User:   %s\n", name)
	if u.ID != 0 {
		fmt.Fprintf(w, "ID:     %d\n", u.ID)
	}
	if u.Email != "" {
		fmt.Fprintf(w, "Email:  %s\n", u.Email)
	}
	if u.AvatarURL != "" {
		fmt.Fprintf(w, "Avatar: %s\n", u.AvatarURL)
	}
}

func newLoginCmd(rt *runtime) *cobra.Command {
	var code, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: `Sign in to the backend.

Without flags, prints the GitHub authorization URL. Open it, approve the
app, and pass the "code" parameter of the callback URL to --code.
A backend credential obtained elsewhere can be stored with --token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			switch {
			case token != "":
				token = strings.TrimSpace(token)
				if err := svc.Session.Start(ctx, application.UserFromToken(token), token); err != nil {
					return err
				}
				if _, err := svc.Session.Credential(ctx); err != nil {
					return err
				}
			case code != "":
				if err := svc.Auth.Login(ctx, svc.Session, code); err != nil {
					return err
				}
			default:
				target, err := svc.Auth.AuthorizeURL(uuid.NewString())
				if err != nil {
					return err
				}
				return rt.output(cmd, map[string]string{"authorize_url": target}, func(w io.Writer) {
					fmt.Fprintf(w, "Open this URL to sign in with GitHub:\n\n  %s\n\n", target)
					fmt.Fprintln(w, "Then run: guardianctl login --code <code from the callback URL>")
				})
			}

			user, _ := svc.Session.User()
			return rt.output(cmd, toUserOutput(user), func(w io.Writer) {
				fmt.Fprintln(w, "Signed in.")
				printUser(w, user)
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "OAuth authorization code to exchange")
	cmd.Flags().StringVar(&token, "token", "", "backend bearer credential to store")
	cmd.MarkFlagsMutuallyExclusive("code", "token")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Session.Clear(cmd.Context()); err != nil {
				return err
			}
			return rt.output(cmd, map[string]bool{"signed_out": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Signed out.")
			})
		},
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}
			if _, err := svc.Session.Credential(cmd.Context()); err != nil {
				return err
			}
			user, _ := svc.Session.User()
			return rt.output(cmd, toUserOutput(user), func(w io.Writer) {
				printUser(w, user)
			})
		},
	}
}
