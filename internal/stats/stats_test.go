package stats

import (
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/preordain/internal/games"
)

func strPtr(s string) *string { return &s }
func f64Ptr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool { return &b }

func history(player ...string) []games.CardPlay {
	plays := make([]games.CardPlay, len(player))
	for i, p := range player {
		plays[i] = games.CardPlay{Player: games.PlayerMe, Card: games.Card{Name: p}}
	}
	return plays
}

// scenarioDataset is the three-game example: two ranked Mage games with
// different deck subtypes and one casual game.
func scenarioDataset() *games.Dataset {
	return games.Normalize([]games.RawRecord{
		{ID: 1, Hero: "Mage", Opponent: "Warrior", Mode: games.ModeRanked, Result: games.ResultWin, Added: "2016-03-14T18:22:34.000Z", CardHistory: history("Fireball")},
		{ID: 2, Hero: "Mage", HeroDeck: strPtr("Tempo"), Opponent: "Warrior", Mode: games.ModeRanked, Result: games.ResultLoss, Added: "2016-03-14T18:40:00.000Z", CardHistory: history("Fireball", "Frostbolt")},
		{ID: 3, Hero: "Mage", HeroDeck: strPtr("Tempo"), Opponent: "Warrior", Mode: games.ModeCasual, Result: games.ResultWin, Added: "2016-03-15T09:00:00.000Z"},
	})
}

func TestMatchups_Scenario(t *testing.T) {
	ds := scenarioDataset()

	matchups := Matchups(ds, games.ModeRanked, 0)
	SortMatchups(matchups)
	require.Len(t, matchups, 2)

	other := matchups[0]
	assert.Equal(t, "Other_Mage", other.PlayerDeck)
	assert.Equal(t, "Other_Warrior", other.OpponentDeck)
	assert.Equal(t, 1, other.Games)
	assert.Equal(t, 1, other.Wins)
	assert.Equal(t, Of(1), other.WinRate)

	tempo := matchups[1]
	assert.Equal(t, "Tempo_Mage", tempo.PlayerDeck)
	assert.Equal(t, 1, tempo.Games)
	assert.Equal(t, 0, tempo.Wins)
	assert.Equal(t, Of(0), tempo.WinRate)

	// Single-game groups have no standard deviation.
	assert.False(t, other.DurationStdDev.Defined)
	assert.False(t, tempo.DurationStdDev.Defined)
}

func TestCardStats_Scenario(t *testing.T) {
	ds := scenarioDataset()
	ranked := Filter(ds.Games, ByMode(games.ModeRanked))

	player, opponent := CardStats(ranked)

	assert.Equal(t, []CardTally{
		{Card: "Fireball", Wins: 1, Losses: 1},
		{Card: "Frostbolt", Wins: 0, Losses: 1},
	}, player)
	assert.Empty(t, opponent)
}

func TestMatchups_Aggregates(t *testing.T) {
	raw := []games.RawRecord{
		{Hero: "Mage", Opponent: "Hunter", Mode: games.ModeRanked, Result: games.ResultWin, Coin: boolPtr(true), Duration: f64Ptr(300), CardHistory: history("Frostbolt")},
		{Hero: "Mage", Opponent: "Hunter", Mode: games.ModeRanked, Result: games.ResultLoss, Coin: boolPtr(false), Duration: f64Ptr(500), CardHistory: history("Fireball")},
		{Hero: "Mage", Opponent: "Hunter", Mode: games.ModeRanked, Result: games.ResultWin, Coin: boolPtr(true), Duration: nil},
		{Hero: "Mage", Opponent: "Priest", Mode: games.ModeRanked, Result: games.ResultWin},
	}
	ds := games.Normalize(raw)

	matchups := Matchups(ds, games.ModeRanked, 0)
	require.Len(t, matchups, 2)

	hunter := matchups[0]
	assert.Equal(t, MatchupKey{PlayerDeck: "Other_Mage", OpponentDeck: "Other_Hunter"}, hunter.Key())
	assert.Equal(t, 3, hunter.Games)
	assert.Equal(t, 2, hunter.Wins)
	assert.InDelta(t, 2.0/3.0, hunter.WinRate.Value, 1e-9)
	assert.Equal(t, 2, hunter.CoinSum)
	assert.Equal(t, Of(400), hunter.DurationMean)
	assert.InDelta(t, math.Sqrt(20000), hunter.DurationStdDev.Value, 1e-9)
	require.Len(t, hunter.CardHistories, 3)
	assert.Equal(t, "Frostbolt", hunter.CardHistories[0][0].Card.Name)
	assert.Equal(t, "Fireball", hunter.CardHistories[1][0].Card.Name)
	assert.Nil(t, hunter.CardHistories[2])

	priest := matchups[1]
	assert.Equal(t, 1, priest.Games)
	assert.False(t, priest.DurationMean.Defined, "no durations recorded")
	assert.Equal(t, 0, priest.CoinSum)
}

func TestMatchups_ModeFilter(t *testing.T) {
	ds := scenarioDataset()

	assert.Len(t, Matchups(ds, games.ModeCasual, 0), 1)
	assert.Len(t, Matchups(ds, ModeBoth, 0), 2)
	assert.Empty(t, Matchups(ds, games.ModeArena, 0))

	both := Matchups(ds, ModeBoth, 0)
	SortMatchups(both)
	assert.Equal(t, 2, both[1].Games, "casual Tempo game joins the ranked one")
}

func TestMatchups_ThresholdIsStrict(t *testing.T) {
	ds := scenarioDataset()

	assert.Len(t, Matchups(ds, ModeBoth, 1), 1)
	assert.Empty(t, Matchups(ds, ModeBoth, 2))
}

func TestMatchups_ThresholdMonotonic(t *testing.T) {
	classes := []string{"Mage", "Hunter", "Priest", "Rogue"}
	var raw []games.RawRecord
	for i := 0; i < 60; i++ {
		raw = append(raw, games.RawRecord{
			Hero:     classes[i%len(classes)],
			Opponent: classes[(i*7)%len(classes)],
			Mode:     games.ModeRanked,
			Result:   []string{games.ResultWin, games.ResultLoss}[i%2],
		})
	}
	ds := games.Normalize(raw)

	keys := func(threshold int) map[MatchupKey]bool {
		out := map[MatchupKey]bool{}
		for _, m := range Matchups(ds, ModeBoth, threshold) {
			out[m.Key()] = true
		}
		return out
	}

	for t1 := 0; t1 < 10; t1++ {
		lower := keys(t1)
		for t2 := t1 + 1; t2 < 12; t2++ {
			for k := range keys(t2) {
				assert.True(t, lower[k], "threshold %d group %v missing at %d", t2, k, t1)
			}
		}
	}
}

func TestMatchups_NilDataset(t *testing.T) {
	assert.Nil(t, Matchups(nil, ModeBoth, 0))
}

func TestCardStats_CountsRepeatsAndConserves(t *testing.T) {
	raw := []games.RawRecord{
		{Hero: "Mage", Opponent: "Warrior", Result: games.ResultWin, CardHistory: append(history("Fireball", "Fireball"),
			games.CardPlay{Player: games.PlayerOpponent, Card: games.Card{Name: "Execute"}})},
		{Hero: "Mage", Opponent: "Warrior", Result: games.ResultLoss, CardHistory: append(history("Fireball"),
			games.CardPlay{Player: games.PlayerOpponent, Card: games.Card{Name: "Execute"}},
			games.CardPlay{Player: games.PlayerOpponent, Card: games.Card{Name: "Whirlwind"}})},
		{Hero: "Mage", Opponent: "Warrior", Result: "draw", CardHistory: history("Polymorph")},
	}
	ds := games.Normalize(raw)

	player, opponent := CardStats(ds.Games)

	fireball, ok := Lookup(player, "Fireball")
	require.True(t, ok)
	assert.Equal(t, 2, fireball.Wins)
	assert.Equal(t, 1, fireball.Losses)

	occurrences := 0
	for _, g := range ds.Games {
		for _, c := range g.PlayerCards {
			if c == "Fireball" {
				occurrences++
			}
		}
	}
	assert.Equal(t, occurrences, fireball.Games())

	polymorph, ok := Lookup(player, "Polymorph")
	require.True(t, ok)
	assert.Equal(t, CardTally{Card: "Polymorph", Wins: 0, Losses: 1}, polymorph)

	// Opponent cards win when the player lost.
	execute, ok := Lookup(opponent, "Execute")
	require.True(t, ok)
	assert.Equal(t, 1, execute.Wins)
	assert.Equal(t, 1, execute.Losses)
	assert.Equal(t, Of(0.5), execute.WinRate())

	_, ok = Lookup(opponent, "Fireball")
	assert.False(t, ok)
}

func TestCardStats_Empty(t *testing.T) {
	player, opponent := CardStats(nil)
	assert.Empty(t, player)
	assert.Empty(t, opponent)
}

func TestReducers(t *testing.T) {
	assert.Equal(t, Of(0), Sum(nil))
	assert.Equal(t, Of(6), Sum([]float64{1, 2, 3}))
	assert.Equal(t, Of(3), Count([]float64{1, 2, 3}))
	assert.Equal(t, Undefined(), Mean(nil))
	assert.Equal(t, Of(2), Mean([]float64{1, 2, 3}))
	assert.Equal(t, Undefined(), StdDev([]float64{5}))
	assert.Equal(t, Of(1), StdDev([]float64{1, 2, 3}))
	assert.Equal(t, Undefined(), Ratio(Of(1), Of(0)))
	assert.Equal(t, Undefined(), Ratio(Undefined(), Of(2)))
	assert.Equal(t, Undefined(), Of(math.NaN()))
}

func TestStat_Encoding(t *testing.T) {
	assert.Equal(t, "n/a", Undefined().String())
	assert.Equal(t, "0.67", Of(2.0/3.0).String())
	assert.Equal(t, 7.0, Undefined().Or(7))

	data, err := json.Marshal(struct {
		A Stat `json:"a"`
		B Stat `json:"b"`
	}{A: Of(1.5), B: Undefined()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1.5, "b": null}`, string(data))

	var decoded struct {
		A Stat `json:"a"`
		B Stat `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Of(1.5), decoded.A)
	assert.Equal(t, Undefined(), decoded.B)
}

func TestAggregate_MultiKeyFirstSeenOrder(t *testing.T) {
	type row struct {
		a, b string
		v    float64
	}
	rows := []row{{"x", "1", 1}, {"y", "1", 2}, {"x", "1", 3}, {"x", "2", 4}}

	groups := Aggregate(rows, func(r row) [2]string { return [2]string{r.a, r.b} }, []Aggregation[row]{
		{Name: "sum", Column: func(r row) (float64, bool) { return r.v, true }, Reduce: Sum},
		{Name: "n", Column: Constant[row], Reduce: Count},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, [2]string{"x", "1"}, groups[0].Key)
	assert.Equal(t, Of(4), groups[0].Stat("sum"))
	assert.Equal(t, Of(2), groups[0].Stat("n"))
	assert.Equal(t, [2]string{"y", "1"}, groups[1].Key)
	assert.Equal(t, [2]string{"x", "2"}, groups[2].Key)
	assert.Equal(t, Undefined(), groups[2].Stat("missing"))
}

func TestFilter(t *testing.T) {
	ds := scenarioDataset()

	assert.Len(t, Filter(ds.Games), 3)
	assert.Len(t, Filter(ds.Games, ByMode(games.ModeRanked)), 2)
	assert.Len(t, Filter(ds.Games, ByMode(ModeBoth)), 3)
	assert.Len(t, Filter(ds.Games, ByPlayerDeck("Tempo_Mage")), 2)
	assert.Len(t, Filter(ds.Games, ByPlayerDeck("Tempo_Mage"), ByMode(games.ModeRanked)), 1)
	assert.Len(t, Filter(ds.Games, ByHero("Mage"), ByOpponentClass("Warrior"), ByOpponentDeck("Other_Warrior")), 3)
	assert.Empty(t, Filter(ds.Games, ByHero("Rogue")))
}

func TestInRange(t *testing.T) {
	ds := scenarioDataset()
	ds.Games = append(ds.Games, games.Game{RawRecord: games.RawRecord{Added: "bad"}})

	march14 := TimeRange{
		Start: time.Date(2016, 3, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2016, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	assert.Len(t, Filter(ds.Games, InRange(march14)), 2)

	month := MonthRangeFrom(time.Date(2016, 4, 20, 0, 0, 0, 0, time.UTC), -1)
	assert.Equal(t, "2016-03-01 to 2016-03-31", month.FormatPeriod())
	assert.Len(t, Filter(ds.Games, InRange(month)), 3)
}

func TestSummarize(t *testing.T) {
	results := []string{"win", "win", "loss", "win", "win", "win", "loss", "loss"}
	raw := make([]games.RawRecord, len(results))
	for i, r := range results {
		raw[i] = games.RawRecord{Hero: "Mage", Opponent: "Rogue", Result: r, Coin: boolPtr(i%2 == 0)}
	}

	s := Summarize(games.Normalize(raw).Games)

	assert.Equal(t, 8, s.Games)
	assert.Equal(t, 5, s.Wins)
	assert.Equal(t, 3, s.Losses)
	assert.Equal(t, Of(5.0/8.0), s.WinRate)
	assert.Equal(t, 4, s.CoinGames)
	assert.Equal(t, 3, s.LongestWinStreak)
	assert.Equal(t, 2, s.LongestLossStreak)
	assert.Equal(t, -2, s.CurrentStreak)
	assert.Equal(t, "2 loss streak", FormatStreak(s.CurrentStreak))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Games)
	assert.False(t, s.WinRate.Defined)
}

func TestFormatStreak(t *testing.T) {
	assert.Equal(t, "No active streak", FormatStreak(0))
	assert.Equal(t, "1 win streak", FormatStreak(1))
	assert.Equal(t, "4 win streak", FormatStreak(4))
	assert.Equal(t, "1 loss streak", FormatStreak(-1))
}
