package games

import (
	"github.com/goccy/go-json"
)

// MalformedField records a field of a raw record that could not be decoded.
// The field is left at its zero value and Normalize reports it as a warning.
type MalformedField struct {
	Field  string
	Reason string
}

type fieldDecoder func(r *RawRecord, raw json.RawMessage) error

var recordFields = map[string]fieldDecoder{
	"id":            func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.ID) },
	"mode":          func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Mode) },
	"hero":          func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Hero) },
	"hero_deck":     func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.HeroDeck) },
	"opponent":      func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Opponent) },
	"opponent_deck": func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.OpponentDeck) },
	"coin":          func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Coin) },
	"result":        func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Result) },
	"duration":      func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Duration) },
	"rank":          func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Rank) },
	"legend":        func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Legend) },
	"note":          func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Note) },
	"added":         func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.Added) },
	"card_history":  func(r *RawRecord, raw json.RawMessage) error { return decodeInto(raw, &r.CardHistory) },
}

// decodeInto only assigns dst when the whole value decodes.
func decodeInto[T any](raw json.RawMessage, dst *T) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// DecodeRecord decodes one history entry. It never fails: a field with the
// wrong type is left empty and listed in Malformed, and an entry that is not
// a JSON object yields an empty record marked malformed as a whole.
func DecodeRecord(data []byte) RawRecord {
	var rec RawRecord
	if err := json.Unmarshal(data, &rec); err == nil {
		return rec
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return RawRecord{Malformed: []MalformedField{{Field: "record", Reason: "not a JSON object"}}}
	}

	rec = RawRecord{}
	for _, name := range recordFieldOrder {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if err := recordFields[name](&rec, raw); err != nil {
			rec.Malformed = append(rec.Malformed, MalformedField{
				Field:  name,
				Reason: "unexpected value " + quote(string(raw)),
			})
		}
	}
	return rec
}

// recordFieldOrder keeps warnings in a stable order.
var recordFieldOrder = []string{
	"id", "mode", "hero", "hero_deck", "opponent", "opponent_deck", "coin",
	"result", "duration", "rank", "legend", "note", "added", "card_history",
}
