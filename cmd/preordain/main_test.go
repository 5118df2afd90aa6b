package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/preordain/internal/identity"
)

const historyBody = `{
  "history": [
    {"id": 1, "mode": "ranked", "hero": "Mage", "hero_deck": null, "opponent": "Warrior", "opponent_deck": null,
     "coin": true, "result": "win", "duration": 300, "added": "2016-03-14T18:22:34.000Z",
     "card_history": [{"turn": 1, "player": "me", "card": {"id": "CS2_029", "name": "Fireball", "mana": 4}},
                      {"turn": 2, "player": "opponent", "card": {"id": "CS2_108", "name": "Execute", "mana": 1}}]},
    {"id": 2, "mode": "ranked", "hero": "Mage", "hero_deck": "Tempo", "opponent": "Warrior", "opponent_deck": null,
     "coin": false, "result": "loss", "duration": 500, "added": "2016-03-14T18:40:00.000Z",
     "card_history": [{"turn": 1, "player": "me", "card": {"id": "CS2_029", "name": "Fireball", "mana": 4}},
                      {"turn": 3, "player": "me", "card": {"id": "CS2_024", "name": "Frostbolt", "mana": 2}}]},
    {"id": 3, "mode": "casual", "hero": "Mage", "hero_deck": "Tempo", "opponent": "Rogue", "opponent_deck": null,
     "coin": false, "result": "win", "duration": 400, "added": "2016-03-15T09:00:00.000Z", "card_history": []}
  ],
  "meta": {"current_page": 1, "next_page": null, "prev_page": null, "total_pages": 1, "total_items": 3}
}`

type cliEnv struct {
	configPath string
	dataDir    string
	requests   *atomic.Int32
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/profile/history.json" || r.URL.Query().Get("token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(historyBody))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
[account]
username = "jaina"
token = "secret"

[api]
base_url = %q
requests_per_sec = 100.0

[log]
level = "error"
format = "json"
`, srv.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return &cliEnv{configPath: configPath, dataDir: filepath.Join(dir, "data"), requests: &requests}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.configPath, "--data-dir", e.dataDir}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestCLI_SyncThenCacheHit(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "3 games")
	assert.Contains(t, out, "fetched")
	assert.Contains(t, out, "Record: 2-1")
	assert.NotContains(t, out, "secret")
	assert.Equal(t, int32(1), env.requests.Load())

	out, err = env.run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "cache hit")
	assert.Equal(t, int32(2), env.requests.Load(), "cache hit needs only the first page")
}

func TestCLI_MatchupsOfflineCSV(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "sync")
	require.NoError(t, err)

	out, err := env.run(t, "matchups", "--offline", "--mode", "ranked", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "p_deck_type,o_deck_type,count,wins,win_rate,coin,duration_mean,duration_std", lines[0])
	assert.Equal(t, "Other_Mage,Other_Warrior,1,1,1.00,1,300.00,n/a", lines[1])
	assert.Equal(t, "Tempo_Mage,Other_Warrior,1,0,0.00,0,500.00,n/a", lines[2])
	assert.Equal(t, int32(1), env.requests.Load(), "offline commands never fetch")
}

func TestCLI_MatchupsTableAndChart(t *testing.T) {
	env := newCLIEnv(t)
	chartPath := filepath.Join(t.TempDir(), "matchups.html")

	out, err := env.run(t, "matchups", "--mode", "both", "--chart", chartPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Tempo_Mage")
	assert.Contains(t, out, "Other_Rogue")
	assert.Contains(t, out, "Chart written to")

	_, err = os.Stat(chartPath)
	assert.NoError(t, err)
}

func TestCLI_CardsFiltered(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "cards", "--mode", "ranked", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"card": "Fireball"`)
	assert.Contains(t, out, `"card": "Execute"`)

	out, err = env.run(t, "cards", "--offline", "--deck", "Tempo_Mage")
	require.NoError(t, err)
	assert.Contains(t, out, "1 games selected")
	assert.Contains(t, out, "Frostbolt")
	assert.NotContains(t, out, "Execute")
}

func TestCLI_CacheList(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No cached histories.")

	_, err = env.run(t, "sync")
	require.NoError(t, err)

	out, err = env.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, identity.ShortKey(identity.Key("jaina", "secret")))
}

func TestCLI_OfflineWithoutCache(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "matchups", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached history")
}

func TestCLI_OutRequiresExportFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "matchups", "--out", filepath.Join(t.TempDir(), "m.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out requires")
}

func TestCLI_ConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preordain", "config.toml")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, root.Execute())
	assert.FileExists(t, path)

	root = NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, root.Execute(), "refuses to overwrite")

	env := newCLIEnv(t)
	show, err := env.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, show, "<redacted>")
	assert.NotContains(t, show, "secret")
}

func TestCLI_PeriodFilters(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "sync")
	require.NoError(t, err)

	out, err := env.run(t, "matchups", "--offline", "--mode", "both", "--since", "2016-03-15", "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Tempo_Mage,Other_Rogue,1,1,"), lines[1])

	out, err = env.run(t, "matchups", "--offline", "--mode", "both", "--month", "2016-03")
	require.NoError(t, err)
	assert.Contains(t, out, "Period: 2016-03-01 to 2016-03-31")
	assert.Contains(t, out, "Other_Rogue")

	out, err = env.run(t, "cards", "--offline", "--mode", "both", "--month", "2016-03")
	require.NoError(t, err)
	assert.Contains(t, out, "3 games selected")

	out, err = env.run(t, "cards", "--offline", "--mode", "both", "--month", "2016-04")
	require.NoError(t, err)
	assert.Contains(t, out, "Period: 2016-04-01 to 2016-04-30")
	assert.Contains(t, out, "0 games selected")

	out, err = env.run(t, "cards", "--offline", "--mode", "both", "--since", "2016-03-01", "--until", "2016-03-14")
	require.NoError(t, err)
	assert.Contains(t, out, "2 games selected")
}

func TestCLI_PeriodFlagErrors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad month", []string{"matchups", "--month", "march"}, "invalid --month"},
		{"bad since", []string{"cards", "--since", "14/03/2016"}, "invalid --since"},
		{"until alone", []string{"cards", "--until", "2016-03-14"}, "--until requires --since"},
		{"empty window", []string{"cards", "--since", "2016-03-15", "--until", "2016-03-01"}, "after the end"},
		{"month and since", []string{"matchups", "--month", "0", "--since", "2016-03-01"}, "month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.Equal(t, int32(0), env.requests.Load(), "invalid periods fail before fetching")
}
