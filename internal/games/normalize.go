package games

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var addedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize derives analysis columns for every raw record.
// It never fails: malformed fields are coerced and reported as warnings,
// and the output keeps the input order.
func Normalize(raw []RawRecord) *Dataset {
	ds := &Dataset{
		Games:    make([]Game, 0, len(raw)),
		Warnings: []NormalizationWarning{},
	}

	for i := range raw {
		game, warnings := normalizeRecord(i, raw[i])
		ds.Games = append(ds.Games, game)
		ds.Warnings = append(ds.Warnings, warnings...)
	}

	return ds
}

func normalizeRecord(row int, rec RawRecord) (Game, []NormalizationWarning) {
	var warnings []NormalizationWarning
	warn := func(field, reason string) {
		warnings = append(warnings, NormalizationWarning{Row: row, Field: field, Reason: reason})
	}

	for _, m := range rec.Malformed {
		warn(m.Field, m.Reason)
	}

	if rec.Hero == "" {
		warn("hero", "missing hero class")
	}
	if rec.Opponent == "" {
		warn("opponent", "missing opponent class")
	}
	if rec.Result == "" {
		warn("result", "missing result")
	}
	if rec.Mode == "" {
		warn("mode", "missing mode")
	}

	game := Game{
		RawRecord:        rec,
		PlayerDeckType:   DeckType(rec.HeroDeck, rec.Hero),
		OpponentDeckType: DeckType(rec.OpponentDeck, rec.Opponent),
		PlayerCards:      CardsPlayed(rec.CardHistory, PlayerMe),
		OpponentCards:    CardsPlayed(rec.CardHistory, PlayerOpponent),
	}

	added, err := ParseAdded(rec.Added)
	if err != nil {
		warn("added", err.Error())
	} else {
		game.Year = intPtr(added.Year())
		game.Month = intPtr(int(added.Month()))
		game.Day = intPtr(added.Day())
		game.Hour = intPtr(added.Hour())
		game.Minute = intPtr(added.Minute())
		game.Second = intPtr(added.Second())
	}

	return game, warnings
}

// CardsPlayed returns the names of the cards a player logged, in order.
// Entries without a card name are skipped.
func CardsPlayed(history []CardPlay, player string) []string {
	cards := make([]string, 0, len(history))
	for _, play := range history {
		if play.Player != player || play.Card.Name == "" {
			continue
		}
		cards = append(cards, play.Card.Name)
	}
	return cards
}

// ParseAdded parses the timestamp a game was recorded at.
// The wall clock values are kept as written; no zone conversion is applied.
func ParseAdded(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}

	for _, layout := range addedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// Drop fractional seconds and zone suffixes such as ".000Z".
	if i := strings.IndexAny(s, ".Z+"); i >= len("2006-01-02T15:04:05") {
		if t, err := time.Parse(addedLayouts[1], s[:i]); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.New("unparseable timestamp " + quote(s))
}

const maxQuoted = 40

// quote shortens s to at most maxQuoted bytes without splitting a rune.
func quote(s string) string {
	if len(s) > maxQuoted {
		cut := maxQuoted
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return `"` + s + `"`
}

func intPtr(v int) *int {
	return &v
}
