package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/squidgame/internal/api/response"
	"github.com/mcoot/squidgame/internal/console"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

// Notifier shows console notifications. Errors are only shown when
// showErrors is set; one-shot commands return them instead. In JSON mode
// notifications go to stderr so stdout stays a single document.
func (o *Output) Notifier(showErrors bool) console.Notifier {
	return console.NotifierFunc(func(kind console.Kind, message string) {
		switch kind {
		case console.KindSuccess:
			if o.format == "json" {
				_, _ = fmt.Fprintln(o.errOut, message)
				return
			}
			o.PrintMessage(message)
		case console.KindWarning:
			_, _ = fmt.Fprintf(o.errOut, "Warning: %s\n", message)
		case console.KindError:
			if showErrors {
				_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", message)
			}
		}
	})
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// RosterView is a game's roster with its win state
type RosterView struct {
	Game    model.Game     `json:"game"`
	Players []model.Player `json:"players"`
	Alive   int            `json:"alive"`
	Winner  *model.Player  `json:"winner,omitempty"`
}

// NewRosterView evaluates players for display
func NewRosterView(game model.Game, players []model.Player) RosterView {
	outcome := roster.Evaluate(players)
	game.Players = nil
	game.JoinPassword = ""
	return RosterView{Game: game, Players: players, Alive: outcome.AliveCount, Winner: outcome.Winner}
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.AuthResponse:
		o.printHost(v.Host)
		_, _ = fmt.Fprintf(o.out, "Token: %s\n", v.SessionToken)
	case *response.AuthResponse:
		o.printText(*v)
	case response.Host:
		o.printHost(v)
	case *response.Host:
		o.printHost(*v)
	case model.GameRecord:
		o.printGame(v)
	case *model.GameRecord:
		o.printGame(*v)
	case response.GameListResponse:
		o.printGameList(v)
	case *response.GameListResponse:
		o.printGameList(*v)
	case model.Player:
		o.printPlayer(v)
	case *model.Player:
		o.printPlayer(*v)
	case RosterView:
		o.printRoster(v)
	case response.HealthResponse:
		_, _ = fmt.Fprintf(o.out, "Status: %s\n", v.Status)
	case *response.HealthResponse:
		_, _ = fmt.Fprintf(o.out, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printHost(h response.Host) {
	_, _ = fmt.Fprintf(o.out, "Host: %s (%s)\n", h.Email, h.ID)
}

func (o *Output) printGame(g model.GameRecord) {
	_, _ = fmt.Fprintf(o.out, "Game: %s (%s)\n", g.Name, g.ID)
	_, _ = fmt.Fprintf(o.out, "Status: %s\n", g.Status)
	if g.JoinPassword != nil {
		_, _ = fmt.Fprintf(o.out, "Join password: %s\n", *g.JoinPassword)
	}
	_, _ = fmt.Fprintf(o.out, "Created: %s\n", g.CreatedAt.Format("2006-01-02 15:04"))
}

func (o *Output) printGameList(l response.GameListResponse) {
	if len(l.Games) == 0 {
		_, _ = fmt.Fprintln(o.out, "No games yet")
		return
	}
	for _, s := range l.Games {
		_, _ = fmt.Fprintf(o.out, "%s  %-20s %-12s %d players\n", s.Game.ID, s.Game.Name, s.Game.Status, s.PlayerCount)
	}
}

func (o *Output) printPlayer(p model.Player) {
	_, _ = fmt.Fprintf(o.out, "#%s %s (%s) %s %s\n", p.Badge(), p.Name, p.ID, p.Status, lossDots(p.Losses))
	if p.PhotoURL != "" {
		_, _ = fmt.Fprintf(o.out, "Photo: %s\n", p.PhotoURL)
	}
}

func (o *Output) printRoster(v RosterView) {
	_, _ = fmt.Fprintf(o.out, "%s [%s]\n", v.Game.Name, v.Game.Status)
	if len(v.Players) == 0 {
		_, _ = fmt.Fprintln(o.out, "No players yet")
	}
	for _, p := range v.Players {
		marker := " "
		if !p.IsAlive() {
			marker = "x"
		}
		_, _ = fmt.Fprintf(o.out, " %s #%s %-20s %s\n", marker, p.Badge(), p.Name, lossDots(p.Losses))
	}
	_, _ = fmt.Fprintf(o.out, "%d alive\n", v.Alive)
	if v.Winner != nil {
		_, _ = fmt.Fprintf(o.out, "WINNER: #%s %s\n", v.Winner.Badge(), v.Winner.Name)
	}
}

// lossDots renders a loss count as a row of dots
func lossDots(losses int) string {
	return strings.Repeat("●", losses)
}
