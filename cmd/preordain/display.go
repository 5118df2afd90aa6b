package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ramonehamilton/preordain/internal/stats"
)

// printSummary displays overall results and streaks.
func printSummary(w io.Writer, s stats.Summary) {
	if s.Games == 0 {
		fmt.Fprintln(w, "No games recorded.")
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Overall")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "Record: %d-%d (%s win rate)\n", s.Wins, s.Losses, formatPercent(s.WinRate))
	fmt.Fprintf(w, "On the coin: %d games\n", s.CoinGames)
	fmt.Fprintf(w, "Current: %s\n", stats.FormatStreak(s.CurrentStreak))

	if s.LongestWinStreak > 0 {
		fmt.Fprintf(w, "Longest win streak: %d\n", s.LongestWinStreak)
	}
	if s.LongestLossStreak > 0 {
		fmt.Fprintf(w, "Longest loss streak: %d\n", s.LongestLossStreak)
	}
	fmt.Fprintln(w)
}

// printMatchups displays one row per deck pairing.
func printMatchups(w io.Writer, matchups []stats.Matchup) {
	if len(matchups) == 0 {
		fmt.Fprintln(w, "No matchups above the threshold.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DECK\tOPPONENT\tGAMES\tWINS\tWIN%\tCOIN\tAVG DURATION\tSTD DURATION\t")
	for _, m := range matchups {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%d\t%s\t%s\t\n",
			m.PlayerDeck, m.OpponentDeck, m.Games, m.Wins, formatPercent(m.WinRate), m.CoinSum,
			formatSeconds(m.DurationMean), formatSeconds(m.DurationStdDev))
	}
	_ = tw.Flush()
}

// printCards displays a card table, hiding cards seen minGames times or fewer.
func printCards(w io.Writer, title string, table []stats.CardTally, minGames int) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "----------")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CARD\tWIN\tLOSS\tWIN%\t")
	shown := 0
	for _, c := range table {
		if c.Games() <= minGames {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t\n", c.Card, c.Wins, c.Losses, formatPercent(c.WinRate()))
		shown++
	}
	_ = tw.Flush()

	if shown == 0 {
		fmt.Fprintln(w, "(none)")
	}
	fmt.Fprintln(w)
}

func formatPercent(s stats.Stat) string {
	if !s.Defined {
		return s.String()
	}
	return fmt.Sprintf("%.1f%%", s.Value*100)
}

func formatSeconds(s stats.Stat) string {
	if !s.Defined {
		return s.String()
	}
	return fmt.Sprintf("%.0fs", s.Value)
}
