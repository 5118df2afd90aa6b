package stats

import (
	"fmt"

	"github.com/ramonehamilton/preordain/internal/games"
)

// Summary gives an overview of a set of games.
type Summary struct {
	Games             int  `json:"games"`
	Wins              int  `json:"wins"`
	Losses            int  `json:"losses"`
	WinRate           Stat `json:"win_rate"`
	CoinGames         int  `json:"coin_games"`
	CurrentStreak     int  `json:"current_streak"`
	LongestWinStreak  int  `json:"longest_win_streak"`
	LongestLossStreak int  `json:"longest_loss_streak"`
}

// Summarize counts results and streaks. Streaks follow the order of the
// input; CurrentStreak describes the run at the end of the slice.
func Summarize(all []games.Game) Summary {
	s := Summary{Games: len(all)}
	currentWinStreak := 0
	currentLossStreak := 0

	for i := range all {
		g := &all[i]
		if g.Coin != nil && *g.Coin {
			s.CoinGames++
		}

		switch g.Result {
		case games.ResultWin:
			s.Wins++
			currentWinStreak++
			currentLossStreak = 0
			if currentWinStreak > s.LongestWinStreak {
				s.LongestWinStreak = currentWinStreak
			}
		case games.ResultLoss:
			s.Losses++
			currentLossStreak++
			currentWinStreak = 0
			if currentLossStreak > s.LongestLossStreak {
				s.LongestLossStreak = currentLossStreak
			}
		default:
			// Draws and unknown results break the streak
			currentWinStreak = 0
			currentLossStreak = 0
		}
	}

	// Positive for wins, negative for losses
	switch {
	case currentWinStreak > 0:
		s.CurrentStreak = currentWinStreak
	case currentLossStreak > 0:
		s.CurrentStreak = -currentLossStreak
	}

	s.WinRate = Ratio(Of(float64(s.Wins)), Of(float64(s.Games)))
	return s
}

// FormatStreak returns a human-readable string for a current streak.
func FormatStreak(streak int) string {
	switch {
	case streak == 0:
		return "No active streak"
	case streak == 1:
		return "1 win streak"
	case streak > 1:
		return fmt.Sprintf("%d win streak", streak)
	case streak == -1:
		return "1 loss streak"
	default:
		return fmt.Sprintf("%d loss streak", -streak)
	}
}
