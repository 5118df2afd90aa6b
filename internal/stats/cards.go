package stats

import (
	"sort"

	"github.com/ramonehamilton/preordain/internal/games"
)

// CardTally is the win/loss record of games in which a card was played.
type CardTally struct {
	Card   string `json:"card" csv:"card"`
	Wins   int    `json:"win" csv:"win"`
	Losses int    `json:"loss" csv:"loss"`
}

// Games returns the number of counted appearances.
func (c CardTally) Games() int {
	return c.Wins + c.Losses
}

// WinRate returns Wins / (Wins + Losses).
func (c CardTally) WinRate() Stat {
	return Ratio(Of(float64(c.Wins)), Of(float64(c.Games())))
}

// CardStats tallies wins and losses per card for the player's cards and
// for the opponent's cards. An opponent card counts as a win when the
// player lost. Every occurrence counts, so a card played twice in a game
// is tallied twice. The input is used as given; filter it beforehand.
func CardStats(subset []games.Game) (player, opponent []CardTally) {
	playerIdx := make(map[string]int)
	opponentIdx := make(map[string]int)

	for i := range subset {
		g := &subset[i]
		for _, card := range g.PlayerCards {
			player = tally(player, playerIdx, card, g.Result == games.ResultWin)
		}
		for _, card := range g.OpponentCards {
			opponent = tally(opponent, opponentIdx, card, g.Result == games.ResultLoss)
		}
	}

	sortTallies(player)
	sortTallies(opponent)
	return player, opponent
}

func tally(table []CardTally, index map[string]int, card string, won bool) []CardTally {
	i, ok := index[card]
	if !ok {
		i = len(table)
		index[card] = i
		table = append(table, CardTally{Card: card})
	}
	if won {
		table[i].Wins++
	} else {
		table[i].Losses++
	}
	return table
}

func sortTallies(table []CardTally) {
	sort.Slice(table, func(i, j int) bool { return table[i].Card < table[j].Card })
}

// Lookup returns the tally for card, if present.
func Lookup(table []CardTally, card string) (CardTally, bool) {
	i := sort.Search(len(table), func(i int) bool { return table[i].Card >= card })
	if i < len(table) && table[i].Card == card {
		return table[i], true
	}
	return CardTally{}, false
}
