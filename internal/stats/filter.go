package stats

import (
	"time"

	"github.com/ramonehamilton/preordain/internal/games"
)

// Predicate selects games for an analysis subset.
type Predicate func(g *games.Game) bool

// Filter returns the games matching every predicate, in order.
func Filter(all []games.Game, preds ...Predicate) []games.Game {
	out := make([]games.Game, 0, len(all))
	for i := range all {
		keep := true
		for _, pred := range preds {
			if !pred(&all[i]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, all[i])
		}
	}
	return out
}

// ByMode matches a game mode; ModeBoth matches everything.
func ByMode(mode string) Predicate {
	return func(g *games.Game) bool {
		return mode == ModeBoth || g.Mode == mode
	}
}

// ByPlayerDeck matches the player's deck-type label, e.g. "Tempo_Mage".
func ByPlayerDeck(deckType string) Predicate {
	return func(g *games.Game) bool { return g.PlayerDeckType == deckType }
}

// ByOpponentDeck matches the opponent's deck-type label.
func ByOpponentDeck(deckType string) Predicate {
	return func(g *games.Game) bool { return g.OpponentDeckType == deckType }
}

// ByHero matches the player's class.
func ByHero(hero string) Predicate {
	return func(g *games.Game) bool { return g.Hero == hero }
}

// ByOpponentClass matches the opponent's class.
func ByOpponentClass(class string) Predicate {
	return func(g *games.Game) bool { return g.Opponent == class }
}

// InRange matches games played within tr. Games without a parsed
// timestamp never match.
func InRange(tr TimeRange) Predicate {
	return func(g *games.Game) bool {
		t, ok := PlayedAt(g)
		return ok && tr.Contains(t)
	}
}

// PlayedAt rebuilds the time a game was recorded from its date fields.
func PlayedAt(g *games.Game) (time.Time, bool) {
	if g.Year == nil || g.Month == nil || g.Day == nil || g.Hour == nil || g.Minute == nil || g.Second == nil {
		return time.Time{}, false
	}
	return time.Date(*g.Year, time.Month(*g.Month), *g.Day, *g.Hour, *g.Minute, *g.Second, 0, time.UTC), true
}

// TimeRange is a half-open period [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// MonthRangeFrom returns the month containing referenceTime shifted by
// offset months; 0 is the same month, -1 the previous one.
func MonthRangeFrom(referenceTime time.Time, offset int) TimeRange {
	start := time.Date(referenceTime.Year(), referenceTime.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset, 0)
	return TimeRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// FormatPeriod returns a human-readable description of the period.
func (tr TimeRange) FormatPeriod() string {
	start := tr.Start.Format("2006-01-02")
	end := tr.End.AddDate(0, 0, -1).Format("2006-01-02") // End is exclusive
	return start + " to " + end
}
