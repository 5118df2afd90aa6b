// Package charts renders matchup and card win rates as interactive HTML.
package charts

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/preordain/internal/stats"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title    string   // Chart title
	Subtitle string   // Chart subtitle
	Width    string   // Chart width (e.g., "900px")
	Height   string   // Chart height (e.g., "500px")
	Theme    string   // Chart theme
	Colors   []string // Series colors, win rate first
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  "1200px",
		Height: "600px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75"},
	}
}

// DataPoint is one bar: a label, its win rate in percent and its sample size.
type DataPoint struct {
	Label   string
	WinRate float64
	Games   int
}

// MatchupPoints turns matchups into chart points labelled
// "<player deck> vs <opponent deck>".
func MatchupPoints(matchups []stats.Matchup) []DataPoint {
	points := make([]DataPoint, len(matchups))
	for i, m := range matchups {
		points[i] = DataPoint{
			Label:   m.PlayerDeck + " vs " + m.OpponentDeck,
			WinRate: percent(m.WinRate),
			Games:   m.Games,
		}
	}
	return points
}

// CardPoints turns card tallies into chart points, keeping cards played
// more than minGames times.
func CardPoints(table []stats.CardTally, minGames int) []DataPoint {
	points := make([]DataPoint, 0, len(table))
	for _, c := range table {
		if c.Games() <= minGames {
			continue
		}
		points = append(points, DataPoint{Label: c.Card, WinRate: percent(c.WinRate()), Games: c.Games()})
	}
	return points
}

func percent(s stats.Stat) float64 {
	return math.Round(s.Or(0)*1000) / 10
}

// RenderBarChart writes a bar chart of win rates with a second series for
// game counts.
func RenderBarChart(w io.Writer, data []DataPoint, config ChartConfig) error {
	if len(data) == 0 {
		return fmt.Errorf("no data points provided")
	}

	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: 30, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Win Rate (%)",
			Max:  100,
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	)

	xLabels := make([]string, len(data))
	winRates := make([]opts.BarData, len(data))
	counts := make([]opts.BarData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		winRates[i] = opts.BarData{Value: point.WinRate}
		counts[i] = opts.BarData{Value: point.Games}
	}

	bar.SetXAxis(xLabels).
		AddSeries("Win Rate", winRates).
		AddSeries("Games", counts).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	return nil
}

// RenderMatchupChart writes an HTML bar chart of matchup win rates to outputPath.
func RenderMatchupChart(matchups []stats.Matchup, config ChartConfig, outputPath string) error {
	if config.Title == "" {
		config.Title = "Matchup Win Rates"
	}
	return renderToFile(MatchupPoints(matchups), config, outputPath)
}

// RenderCardChart writes an HTML bar chart of card win rates to outputPath.
func RenderCardChart(table []stats.CardTally, minGames int, config ChartConfig, outputPath string) error {
	if config.Title == "" {
		config.Title = "Card Win Rates"
	}
	return renderToFile(CardPoints(table, minGames), config, outputPath)
}

func renderToFile(data []DataPoint, config ChartConfig, outputPath string) (err error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return RenderBarChart(f, data, config)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
