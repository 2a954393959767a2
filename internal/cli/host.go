package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/api/response"
)

func newHostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host account commands",
	}

	cmd.AddCommand(newHostAuthCmd("signup", "Create a host account", (*Client).SignUp))
	cmd.AddCommand(newHostAuthCmd("signin", "Sign in to a host account", (*Client).SignIn))
	cmd.AddCommand(newHostSignOutCmd())
	cmd.AddCommand(newHostMeCmd())

	return cmd
}

type authCall func(c *Client, ctx context.Context, email, password string) (*response.AuthResponse, error)

func newHostAuthCmd(use, short string, call authCall) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call(client, cmd.Context(), email, password)
			if err != nil {
				return err
			}

			// Save token
			if err := session.Set(Session{Token: result.SessionToken, Host: &result.Host}); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newHostSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if session.Current().SignedIn() {
				// An expired session is still cleared locally
				if err := client.SignOut(cmd.Context()); err != nil && cfg.Verbose {
					output(cmd).PrintError(err)
				}
			}
			if err := session.Clear(); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}
			output(cmd).PrintMessage("You have been signed out")
			return nil
		},
	}
}

func newHostMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in host",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}
