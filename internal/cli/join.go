package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/console"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
)

func newJoinCmd() *cobra.Command {
	var name, password, photo string

	cmd := &cobra.Command{
		Use:   "join <game>",
		Short: "Join a game as a player",
		Long: `Join a game with the password the host gave you. No account is needed.

A photo that cannot be stored does not stop the join; you are added
without one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := console.JoinRequest{Name: name, Password: password}
			if photo != "" {
				data, err := os.ReadFile(photo)
				if err != nil {
					return fmt.Errorf("failed to read photo: %w", err)
				}
				req.Photo = data
			}

			out := output(cmd)
			joiner := console.NewJoiner(model.GameID(args[0]), client, roster.NewStore(), out.Notifier(false))
			joiner.Fill(req)
			p, err := joiner.Submit(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your name (required)")
	cmd.Flags().StringVar(&password, "password", "", "The game's join password")
	cmd.Flags().StringVar(&photo, "photo", "", "Path to a photo of you")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
