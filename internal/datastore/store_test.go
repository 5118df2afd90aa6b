package datastore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/preordain/internal/games"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func sampleRaw() []games.RawRecord {
	deck := "Tempo"
	coin := true
	duration := 412.0
	turn := 3
	return []games.RawRecord{
		{
			ID: 1, Mode: games.ModeRanked, Hero: "Mage", HeroDeck: &deck, Opponent: "Warrior",
			Coin: &coin, Result: games.ResultWin, Duration: &duration, Added: "2016-03-14T18:22:34.000Z",
			CardHistory: []games.CardPlay{
				{Turn: &turn, Player: games.PlayerMe, Card: games.Card{ID: "EX1_277", Name: "Arcane Missiles"}},
				{Player: games.PlayerOpponent, Card: games.Card{ID: "CS2_106", Name: "Fiery War Axe"}},
			},
		},
		{ID: 2, Mode: games.ModeCasual, Hero: "Rogue", Opponent: "Priest", Result: games.ResultLoss, Added: "bad"},
	}
}

func TestNewRefs(t *testing.T) {
	a := NewRefs("abc")
	b := NewRefs("abc")

	assert.NotEqual(t, a.Raw, b.Raw)
	assert.True(t, strings.HasPrefix(a.Raw, "abc_"))
	assert.True(t, strings.HasSuffix(a.Raw, rawSuffix))
	assert.True(t, strings.HasSuffix(a.Normalized, gamesSuffix))
}

func TestStore_DatasetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ds := games.Normalize(sampleRaw())

	require.NoError(t, s.WriteDataset("k_games.json.zst", ds))

	got, err := s.ReadDataset("k_games.json.zst")
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestStore_RawRoundTrip(t *testing.T) {
	s := newTestStore(t)
	raw := sampleRaw()

	require.NoError(t, s.WriteRaw("k_raw.json.zst", raw))

	got, err := s.ReadRaw("k_raw.json.zst")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestStore_Overwrite(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.WriteRaw("r", sampleRaw()))
	require.NoError(t, s.WriteRaw("r", sampleRaw()[:1]))

	got, err := s.ReadRaw("r")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// No temp files are left behind.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReadDataset("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "junk"), []byte("not zstd"), 0o600))

	_, err := s.ReadDataset("junk")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRaw("r", nil))

	require.NoError(t, s.Remove("r"))
	require.NoError(t, s.Remove("r"))

	_, err := s.ReadRaw("r")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsPathRefs(t *testing.T) {
	s := newTestStore(t)

	for _, ref := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, s.WriteRaw(ref, nil), ref)
	}
}
