package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/console"
	"github.com/mcoot/squidgame/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerAddCmd())
	cmd.AddCommand(newPlayerEditCmd())
	cmd.AddCommand(newPlayerDeleteCmd())
	cmd.AddCommand(newPlayerPhotoCmd())

	return cmd
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <game>",
		Short: "List a game's players by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadGame(cmd, model.GameID(args[0]))
			if err != nil {
				return err
			}
			out := output(cmd)
			if cfg.Output == "json" {
				out.Print(view.Players)
				return nil
			}
			out.Print(NewRosterView(view.Game, view.Players))
			return nil
		},
	}
}

func newPlayerAddCmd() *cobra.Command {
	var name, photo string

	cmd := &cobra.Command{
		Use:   "add <game>",
		Short: "Add a player to a game you host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if photo != "" {
				var err error
				if data, err = os.ReadFile(photo); err != nil {
					return fmt.Errorf("failed to read photo: %w", err)
				}
			}

			out := output(cmd)
			rc, err := openConsole(cmd, model.GameID(args[0]), false)
			if err != nil {
				return err
			}
			defer rc.Close()

			p, err := rc.manager.Add(cmd.Context(), name)
			if err != nil {
				return err
			}
			if data != nil {
				updated, err := rc.manager.UploadPhoto(cmd.Context(), p.ID, data)
				if err != nil {
					out.Notifier(false).Notify(console.KindWarning, model.MsgAddedNoPhoto)
				} else {
					p = updated
				}
			}
			out.Print(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (required)")
	cmd.Flags().StringVar(&photo, "photo", "", "Path to a photo")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayerEditCmd() *cobra.Command {
	var (
		name   string
		number int
		status string
		losses int
	)

	cmd := &cobra.Command{
		Use:   "edit <game> <player>",
		Short: "Edit a player; unset flags keep their current value",
		Long: `Edit a player. Every field is written, so fields without a flag keep the
player's current value. <player> is an id or a badge number.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := openConsole(cmd, model.GameID(args[0]), true)
			if err != nil {
				return err
			}
			defer rc.Close()

			current, err := rc.find(args[1])
			if err != nil {
				return err
			}

			edit := console.Edit{
				Name:   current.Name,
				Number: current.Number,
				Status: current.Status,
				Losses: current.Losses,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				edit.Name = name
			}
			if flags.Changed("number") {
				edit.Number = number
			}
			if flags.Changed("status") {
				edit.Status = model.PlayerStatus(status)
			}
			if flags.Changed("losses") {
				edit.Losses = losses
			}

			if err := rc.manager.Open(current.ID); err != nil {
				return err
			}
			p, err := rc.manager.Save(cmd.Context(), edit)
			if err != nil {
				return err
			}
			output(cmd).Print(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().IntVar(&number, "number", 0, "New badge number (1-456)")
	cmd.Flags().StringVar(&status, "status", "", "alive or eliminated")
	cmd.Flags().IntVar(&losses, "losses", 0, "Loss count")

	return cmd
}

func newPlayerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game> <player>",
		Short: "Permanently delete a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := openConsole(cmd, model.GameID(args[0]), true)
			if err != nil {
				return err
			}
			defer rc.Close()

			p, err := rc.find(args[1])
			if err != nil {
				return err
			}
			if err := rc.manager.Open(p.ID); err != nil {
				return err
			}
			if err := rc.manager.RequestDelete(); err != nil {
				return err
			}
			return rc.manager.ConfirmDelete(cmd.Context())
		},
	}
}

func newPlayerPhotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "photo <player> <file>",
		Short: "Replace a player's photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read photo: %w", err)
			}
			rec, err := client.UploadPhoto(cmd.Context(), model.PlayerID(args[0]), data)
			if err != nil {
				return err
			}
			out := output(cmd)
			out.Notifier(false).Notify(console.KindSuccess, model.MsgPhotoUploaded)
			out.Print(model.TransformPlayer(*rec))
			return nil
		},
	}
}
