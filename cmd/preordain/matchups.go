package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/preordain/internal/charts"
	"github.com/ramonehamilton/preordain/internal/export"
	"github.com/ramonehamilton/preordain/internal/games"
	"github.com/ramonehamilton/preordain/internal/stats"
)

// outputFlags are shared by the table-producing commands.
type outputFlags struct {
	offline   bool
	format    string
	out       string
	overwrite bool
	chart     string
	open      bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Use the cached dataset without contacting the service")
	cmd.Flags().StringVar(&f.format, "format", "table", "Output format: table, csv or json")
	cmd.Flags().StringVar(&f.out, "out", "", "Write csv/json output to this file instead of stdout")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Replace an existing --out file")
	cmd.Flags().StringVar(&f.chart, "chart", "", "Also render an HTML bar chart to this path")
	cmd.Flags().BoolVar(&f.open, "open", false, "Open the rendered chart in a browser")
}

// write emits rows in the requested export format. It reports false when
// the caller should print its own table instead.
func (f *outputFlags) write(cmd *cobra.Command, rows interface{}) (bool, error) {
	if f.format == "table" {
		if f.out != "" {
			return false, fmt.Errorf("--out requires --format csv or json")
		}
		return false, nil
	}

	format, err := export.ParseFormat(f.format)
	if err != nil {
		return false, err
	}

	if f.out == "" {
		return true, export.ExportToWriter(cmd.OutOrStdout(), format, rows, true)
	}

	exporter := export.NewExporter(export.Options{
		Format:     format,
		FilePath:   f.out,
		PrettyJSON: true,
		Overwrite:  f.overwrite,
	})
	if err := exporter.Export(rows); err != nil {
		return false, err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", f.out)
	return true, nil
}

func (f *outputFlags) openChart(cmd *cobra.Command) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", f.chart)
	if f.open {
		return charts.OpenInBrowser(f.chart)
	}
	return nil
}

func newMatchupsCmd(opts *rootOptions) *cobra.Command {
	var (
		mode      string
		threshold int
		period    periodFlags
		output    outputFlags
	)

	cmd := &cobra.Command{
		Use:   "matchups",
		Short: "Win rates per (your deck type, opponent deck type) pairing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("mode") {
				mode = a.cfg.Analysis.Mode
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Analysis.Threshold
			}

			tr, ranged, err := period.timeRange()
			if err != nil {
				return err
			}

			ds, err := a.dataset(cmd.Context(), output.offline)
			if err != nil {
				return err
			}
			if ranged {
				ds = &games.Dataset{Games: stats.Filter(ds.Games, stats.InRange(tr)), Warnings: ds.Warnings}
			}

			matchups := stats.Matchups(ds, mode, threshold)
			stats.SortMatchups(matchups)

			a.log.Debug().Str("mode", mode).Int("threshold", threshold).Int("groups", len(matchups)).Msg("matchups computed")

			written, err := output.write(cmd, matchups)
			if err != nil {
				return err
			}
			if !written {
				if ranged {
					fmt.Fprintf(cmd.OutOrStdout(), "Period: %s\n\n", tr.FormatPeriod())
				}
				printMatchups(cmd.OutOrStdout(), matchups)
			}

			if output.chart != "" {
				cfg := charts.DefaultChartConfig()
				cfg.Subtitle = fmt.Sprintf("mode=%s, more than %d games", mode, threshold)
				if err := charts.RenderMatchupChart(matchups, cfg, output.chart); err != nil {
					return err
				}
				return output.openChart(cmd)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Game mode (ranked, casual, arena, ...) or \"both\" for all (default analysis.mode)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Keep matchups with more than this many games (default analysis.threshold)")
	period.register(cmd)
	output.register(cmd)

	return cmd
}
