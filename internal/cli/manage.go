package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/console"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
	"github.com/mcoot/squidgame/internal/services/loader"
)

const manageHelp = `Commands:
  list                                   show the roster
  add <name>                             add a player
  open <player>                          edit a player (id or badge)
  save <number> <status> <losses> <name> save the open player
  cancel                                 close the editor
  delete                                 delete the open player
  confirm                                confirm the delete
  back                                   return to the editor
  photo <player> <file>                  replace a player's photo
  help                                   show this help
  quit                                   leave the console`

func newManageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manage <game>",
		Short: "Interactive management console for a game you host",
		Long:  "Manage a game's roster interactively. Changes made elsewhere show up as they happen.\n\n" + manageHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := model.GameID(args[0])
			ctx := cmd.Context()
			out := output(cmd)
			log := logger(cmd)

			me, err := client.Me(ctx)
			if err != nil {
				return err
			}
			rc, err := openConsole(cmd, gameID, false)
			if err != nil {
				return err
			}
			defer rc.Close()

			// Only the owner's games load
			req := loader.Request{
				GameID:        gameID,
				Viewer:        &model.Host{ID: model.HostID(me.ID), Email: me.Email},
				RequireViewer: true,
			}
			consumer := roster.NewConsumer(newWSFeed(cfg.ServerURL, currentToken), rc.store, log,
				roster.WithOnApply(func(e model.ChangeEvent) {
					log.Debug("roster changed", slog.String("type", string(e.Type)), slog.String("player_id", string(e.PlayerID())))
				}))
			if err := consumer.Subscribe(ctx, gameID, loader.New(client, log).Seed(req, &rc.view)); err != nil {
				return err
			}
			defer consumer.Close()

			m := &manageSession{rc: rc, out: out, w: cmd.OutOrStdout()}
			return m.run(ctx, cmd.InOrStdin())
		},
	}
}

type manageSession struct {
	rc  *remoteConsole
	out *Output
	w   io.Writer
}

func (m *manageSession) prompt() {
	state := m.rc.manager.State()
	if p, ok := m.rc.manager.Selected(); ok {
		_, _ = fmt.Fprintf(m.w, "[%s #%s %s]> ", state, p.Badge(), p.Name)
		return
	}
	_, _ = fmt.Fprint(m.w, "> ")
}

func (m *manageSession) run(ctx context.Context, in io.Reader) error {
	m.list()
	scanner := bufio.NewScanner(in)
	for {
		m.prompt()
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(m.w)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := m.exec(ctx, fields[0], fields[1:]); err != nil {
			m.out.PrintError(userError(err))
		}
	}
}

// userError swaps known errors for the copy shown on every surface
func userError(err error) error {
	if msg := model.Message(err); msg != model.MsgSomethingWrong {
		return errors.New(msg)
	}
	return err
}

func (m *manageSession) exec(ctx context.Context, command string, args []string) error {
	mgr := m.rc.manager
	switch command {
	case "list", "ls":
		m.list()
	case "help":
		_, _ = fmt.Fprintln(m.w, manageHelp)
	case "add":
		_, err := mgr.Add(ctx, strings.Join(args, " "))
		return err
	case "open", "edit":
		if len(args) != 1 {
			return usage("open <player>")
		}
		p, err := m.rc.find(args[0])
		if err != nil {
			return err
		}
		return mgr.Open(p.ID)
	case "save":
		if len(args) < 4 {
			return usage("save <number> <status> <losses> <name>")
		}
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return model.ErrInvalidPlayerNumber
		}
		losses, err := strconv.Atoi(args[2])
		if err != nil {
			return model.ErrInvalidLosses
		}
		_, err = mgr.Save(ctx, console.Edit{
			Name:   strings.Join(args[3:], " "),
			Number: number,
			Status: model.PlayerStatus(args[1]),
			Losses: losses,
		})
		return err
	case "cancel":
		return mgr.Cancel()
	case "delete", "rm":
		if err := mgr.RequestDelete(); err != nil {
			return err
		}
		p, _ := mgr.Selected()
		_, _ = fmt.Fprintf(m.w, "Delete #%s %s? Type 'confirm' or 'back'\n", p.Badge(), p.Name)
	case "confirm":
		return mgr.ConfirmDelete(ctx)
	case "back":
		return mgr.CancelDelete()
	case "photo":
		if len(args) != 2 {
			return usage("photo <player> <file>")
		}
		p, err := m.rc.find(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read photo: %w", err)
		}
		_, err = mgr.UploadPhoto(ctx, p.ID, data)
		return err
	default:
		return fmt.Errorf("unknown command %q, type 'help'", command)
	}
	return nil
}

func (m *manageSession) list() {
	m.out.Print(NewRosterView(m.rc.view.Game, m.rc.store.Players()))
}

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}
