package roster

import "github.com/mcoot/squidgame/internal/model"

// Outcome is the win state derived from a roster
type Outcome struct {
	AliveCount int
	Winner     *model.Player // set only when exactly one player is alive
}

// HasWinner reports whether exactly one player is alive
func (o Outcome) HasWinner() bool {
	return o.Winner != nil
}

// Evaluate counts alive players and picks the winner when one remains
func Evaluate(players []model.Player) Outcome {
	var out Outcome
	var last model.Player
	for _, p := range players {
		if p.Removed || !p.IsAlive() {
			continue
		}
		out.AliveCount++
		last = p
	}
	if out.AliveCount == 1 {
		out.Winner = &last
	}
	return out
}
