// Package games defines game history records and normalizes them into
// analysis-ready rows.
package games

// Player values used in card history entries.
const (
	PlayerMe       = "me"
	PlayerOpponent = "opponent"
)

// Result values reported for a game.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

// Modes reported by the history service.
const (
	ModeRanked = "ranked"
	ModeCasual = "casual"
	ModeArena  = "arena"
)

// RawRecord is one completed game as returned by the history API.
// Nullable fields are pointers.
type RawRecord struct {
	ID           int64      `json:"id"`
	Mode         string     `json:"mode"`
	Hero         string     `json:"hero"`
	HeroDeck     *string    `json:"hero_deck"`
	Opponent     string     `json:"opponent"`
	OpponentDeck *string    `json:"opponent_deck"`
	Coin         *bool      `json:"coin"`
	Result       string     `json:"result"`
	Duration     *float64   `json:"duration"`
	Rank         *int       `json:"rank"`
	Legend       *int       `json:"legend"`
	Note         *string    `json:"note"`
	Added        string     `json:"added"`
	CardHistory  []CardPlay `json:"card_history"`

	// Malformed lists fields DecodeRecord had to drop.
	Malformed []MalformedField `json:"-"`
}

// CardPlay is a single card logged during a game.
type CardPlay struct {
	Turn   *int   `json:"turn"`
	Player string `json:"player"`
	Card   Card   `json:"card"`
}

// Card identifies a played card.
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mana *int   `json:"mana"`
}

// Won reports whether the game was a win for the player.
func (r *RawRecord) Won() bool {
	return r.Result == ResultWin
}
