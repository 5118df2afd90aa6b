package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/preordain/internal/stats"
)

func sampleMatchups() []stats.Matchup {
	return []stats.Matchup{
		{PlayerDeck: "Tempo_Mage", OpponentDeck: "Other_Warrior", Games: 3, Wins: 2, WinRate: stats.Of(2.0 / 3.0)},
		{PlayerDeck: "Other_Mage", OpponentDeck: "Pirate_Warrior", Games: 1, Wins: 0, WinRate: stats.Of(0)},
	}
}

func TestMatchupPoints(t *testing.T) {
	points := MatchupPoints(sampleMatchups())
	require.Len(t, points, 2)
	assert.Equal(t, DataPoint{Label: "Tempo_Mage vs Other_Warrior", WinRate: 66.7, Games: 3}, points[0])
	assert.Equal(t, 0.0, points[1].WinRate)
}

func TestCardPoints(t *testing.T) {
	table := []stats.CardTally{
		{Card: "Fireball", Wins: 3, Losses: 1},
		{Card: "Frostbolt", Wins: 0, Losses: 1},
	}

	points := CardPoints(table, 1)
	require.Len(t, points, 1)
	assert.Equal(t, DataPoint{Label: "Fireball", WinRate: 75, Games: 4}, points[0])
}

func TestRenderBarChart(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultChartConfig()
	cfg.Title = "Ranked"

	require.NoError(t, RenderBarChart(&buf, MatchupPoints(sampleMatchups()), cfg))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Tempo_Mage vs Other_Warrior")
	assert.Contains(t, html, "Ranked")
}

func TestRenderBarChart_NoData(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderBarChart(&buf, nil, DefaultChartConfig()))
}

func TestRenderMatchupChart_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "matchups.html")

	require.NoError(t, RenderMatchupChart(sampleMatchups(), DefaultChartConfig(), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Matchup Win Rates")
}

func TestRenderCardChart_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.html")
	table := []stats.CardTally{{Card: "Fireball", Wins: 1, Losses: 1}}

	require.NoError(t, RenderCardChart(table, 0, DefaultChartConfig(), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Fireball")
}
