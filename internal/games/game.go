package games

import "fmt"

// OtherDeck replaces a missing deck subtype in deck-type labels.
const OtherDeck = "Other"

// Game is a normalized game row.
type Game struct {
	RawRecord

	PlayerDeckType   string   `json:"p_deck_type"`
	OpponentDeckType string   `json:"o_deck_type"`
	PlayerCards      []string `json:"p_cards_played"`
	OpponentCards    []string `json:"o_cards_played"`

	// Decomposed from Added; nil when the timestamp could not be parsed.
	Year   *int `json:"year"`
	Month  *int `json:"month"`
	Day    *int `json:"day"`
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
	Second *int `json:"second"`
}

// NormalizationWarning records a recoverable problem with one input row.
type NormalizationWarning struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (w NormalizationWarning) String() string {
	return fmt.Sprintf("row %d: %s: %s", w.Row, w.Field, w.Reason)
}

// Dataset is a normalized game history.
type Dataset struct {
	Games    []Game                 `json:"games"`
	Warnings []NormalizationWarning `json:"warnings"`
}

// Len returns the number of games.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Games)
}

// WarningCount returns the number of normalization warnings.
func (d *Dataset) WarningCount() int {
	if d == nil {
		return 0
	}
	return len(d.Warnings)
}

// DeckType builds a deck-type label such as "Tempo_Mage".
// A nil or empty subtype is replaced with OtherDeck.
func DeckType(deck *string, class string) string {
	name := OtherDeck
	if deck != nil && *deck != "" {
		name = *deck
	}
	return name + "_" + class
}
