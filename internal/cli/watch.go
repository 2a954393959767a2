package cli

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
	"github.com/mcoot/squidgame/internal/services/loader"
)

// errFeedClosed is returned when the server ends a live view
var errFeedClosed = errors.New("change feed closed by server")

func newWatchCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch <game>",
		Short: "Watch a game's roster live, like the TV view",
		Long: `Load the game's roster and print it again on every change. The winner is
announced when exactly one player is left alive.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := model.GameID(args[0])
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := output(cmd)
			log := logger(cmd)
			store := roster.NewStore()

			var (
				mu   sync.Mutex
				view *loader.View
			)
			show := func() {
				mu.Lock()
				defer mu.Unlock()
				out.Print(NewRosterView(view.Game, store.Players()))
			}

			l := loader.New(client, log)
			consumer := roster.NewConsumer(newWSFeed(cfg.ServerURL, currentToken), store, log,
				roster.WithOnApply(func(model.ChangeEvent) { show() }))
			if err := consumer.Subscribe(ctx, gameID, l.Seed(loader.Request{GameID: gameID}, &view)); err != nil {
				return err
			}
			defer consumer.Close()

			show()
			if once {
				return nil
			}

			select {
			case <-ctx.Done():
				out.PrintMessage("Disconnected")
				return nil
			case <-consumer.Done():
				return errFeedClosed
			}
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Print the roster once and exit")

	return cmd
}

func currentToken() string {
	return session.Current().Token
}
