package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/model"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameShowCmd())
	cmd.AddCommand(newGamePasswordCmd())
	cmd.AddCommand(newGameStatusCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.CreateGame(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your games, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.ListGames(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <game>",
		Short: "Show a game and its roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadGame(cmd, model.GameID(args[0]))
			if err != nil {
				return err
			}
			output(cmd).Print(NewRosterView(view.Game, view.Players))
			return nil
		},
	}
}

func newGamePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password <game> [password]",
		Short: "Set the join password; omit it to let anyone join",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 2 {
				password = args[1]
			}
			if _, err := client.SetPassword(cmd.Context(), model.GameID(args[0]), password); err != nil {
				return err
			}
			output(cmd).PrintMessage(model.MsgPasswordUpdated)
			return nil
		},
	}
}

func newGameStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status <game> <pending|in-progress|completed>",
		Short:     "Set the game status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(model.GameStatusPending), string(model.GameStatusInProgress), string(model.GameStatusCompleted)},
		RunE: func(cmd *cobra.Command, args []string) error {
			status := model.GameStatus(args[1])
			if !status.Valid() {
				return model.ErrInvalidGameStatus
			}
			if _, err := client.SetStatus(cmd.Context(), model.GameID(args[0]), status); err != nil {
				return err
			}
			output(cmd).PrintMessage(model.MsgStatusUpdated)
			return nil
		},
	}
}
