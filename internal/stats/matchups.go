package stats

import (
	"sort"

	"github.com/ramonehamilton/preordain/internal/games"
)

// ModeBoth disables the mode filter in Matchups.
const ModeBoth = "both"

// MatchupKey identifies a pairing of deck-type labels.
type MatchupKey struct {
	PlayerDeck   string
	OpponentDeck string
}

// Matchup holds the statistics of one deck pairing.
type Matchup struct {
	PlayerDeck     string             `json:"p_deck_type" csv:"p_deck_type"`
	OpponentDeck   string             `json:"o_deck_type" csv:"o_deck_type"`
	Games          int                `json:"count" csv:"count"`
	Wins           int                `json:"wins" csv:"wins"`
	WinRate        Stat               `json:"win_rate" csv:"win_rate"`
	CoinSum        int                `json:"coin" csv:"coin"`
	DurationMean   Stat               `json:"duration_mean" csv:"duration_mean"`
	DurationStdDev Stat               `json:"duration_std" csv:"duration_std"`
	CardHistories  [][]games.CardPlay `json:"card_history" csv:"-"`
}

const (
	aggCoin         = "coin"
	aggDurationMean = "duration_mean"
	aggDurationStd  = "duration_std"
	aggCount        = "count"
	aggWins         = "win"
)

func matchupAggregations() []Aggregation[*games.Game] {
	duration := func(g *games.Game) (float64, bool) {
		if g.Duration == nil {
			return 0, false
		}
		return *g.Duration, true
	}
	coin := func(g *games.Game) (float64, bool) {
		if g.Coin == nil {
			return 0, false
		}
		if *g.Coin {
			return 1, true
		}
		return 0, true
	}
	won := Flag(func(g *games.Game) bool { return g.Won() })

	return []Aggregation[*games.Game]{
		{Name: aggCoin, Column: coin, Reduce: Sum},
		{Name: aggDurationMean, Column: duration, Reduce: Mean},
		{Name: aggDurationStd, Column: duration, Reduce: StdDev},
		{Name: aggCount, Column: Constant[*games.Game], Reduce: Sum},
		{Name: aggWins, Column: won, Reduce: Sum},
	}
}

// Matchups groups games by (player deck type, opponent deck type).
// mode filters on the game mode unless it is ModeBoth; groups with
// threshold or fewer games are dropped. Groups come back in the order
// they first appear; use SortMatchups for a stable presentation order.
func Matchups(ds *games.Dataset, mode string, threshold int) []Matchup {
	if ds == nil {
		return nil
	}

	rows := make([]*games.Game, 0, len(ds.Games))
	for i := range ds.Games {
		g := &ds.Games[i]
		if mode != ModeBoth && g.Mode != mode {
			continue
		}
		rows = append(rows, g)
	}

	key := func(g *games.Game) MatchupKey {
		return MatchupKey{PlayerDeck: g.PlayerDeckType, OpponentDeck: g.OpponentDeckType}
	}
	groups := Aggregate(rows, key, matchupAggregations())

	matchups := make([]Matchup, 0, len(groups))
	for _, grp := range groups {
		count := grp.Stat(aggCount)
		if int(count.Value) <= threshold {
			continue
		}
		wins := grp.Stat(aggWins)

		histories := make([][]games.CardPlay, len(grp.Rows))
		for i, g := range grp.Rows {
			histories[i] = g.CardHistory
		}

		matchups = append(matchups, Matchup{
			PlayerDeck:     grp.Key.PlayerDeck,
			OpponentDeck:   grp.Key.OpponentDeck,
			Games:          int(count.Value),
			Wins:           int(wins.Value),
			WinRate:        Ratio(wins, count),
			CoinSum:        int(grp.Stat(aggCoin).Value),
			DurationMean:   grp.Stat(aggDurationMean),
			DurationStdDev: grp.Stat(aggDurationStd),
			CardHistories:  histories,
		})
	}

	return matchups
}

// SortMatchups orders matchups by player deck, then opponent deck.
func SortMatchups(matchups []Matchup) {
	sort.SliceStable(matchups, func(i, j int) bool {
		if matchups[i].PlayerDeck != matchups[j].PlayerDeck {
			return matchups[i].PlayerDeck < matchups[j].PlayerDeck
		}
		return matchups[i].OpponentDeck < matchups[j].OpponentDeck
	})
}

// Key returns the grouping key of the matchup.
func (m Matchup) Key() MatchupKey {
	return MatchupKey{PlayerDeck: m.PlayerDeck, OpponentDeck: m.OpponentDeck}
}
