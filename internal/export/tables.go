package export

import (
	"github.com/ramonehamilton/preordain/internal/stats"
)

// Perspective labels which side of the game a card table describes.
const (
	PerspectivePlayer   = "player"
	PerspectiveOpponent = "opponent"
)

// CardRow is one exported card tally.
type CardRow struct {
	Perspective string     `json:"perspective" csv:"perspective"`
	Card        string     `json:"card" csv:"card"`
	Wins        int        `json:"win" csv:"win"`
	Losses      int        `json:"loss" csv:"loss"`
	Games       int        `json:"games" csv:"games"`
	WinRate     stats.Stat `json:"win_rate" csv:"win_rate"`
}

// CardRows flattens the player and opponent tables into one list,
// player rows first.
func CardRows(player, opponent []stats.CardTally) []CardRow {
	rows := make([]CardRow, 0, len(player)+len(opponent))
	rows = appendCardRows(rows, PerspectivePlayer, player)
	rows = appendCardRows(rows, PerspectiveOpponent, opponent)
	return rows
}

func appendCardRows(rows []CardRow, perspective string, table []stats.CardTally) []CardRow {
	for _, c := range table {
		rows = append(rows, CardRow{
			Perspective: perspective,
			Card:        c.Card,
			Wins:        c.Wins,
			Losses:      c.Losses,
			Games:       c.Games(),
			WinRate:     c.WinRate(),
		})
	}
	return rows
}
