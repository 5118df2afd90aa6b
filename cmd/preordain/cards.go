package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/preordain/internal/charts"
	"github.com/ramonehamilton/preordain/internal/export"
	"github.com/ramonehamilton/preordain/internal/stats"
)

func newCardsCmd(opts *rootOptions) *cobra.Command {
	var (
		mode         string
		deck         string
		opponentDeck string
		hero         string
		opponent     string
		minGames     int
		period       periodFlags
		output       outputFlags
	)

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Win/loss tallies per card for you and your opponents",
		Long: `Tallies every card play in the selected games. A card played twice in
one game counts twice. Opponent cards count as wins when you lost.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("mode") {
				mode = a.cfg.Analysis.Mode
			}

			tr, ranged, err := period.timeRange()
			if err != nil {
				return err
			}

			ds, err := a.dataset(cmd.Context(), output.offline)
			if err != nil {
				return err
			}

			preds := []stats.Predicate{stats.ByMode(mode)}
			if ranged {
				preds = append(preds, stats.InRange(tr))
			}
			if deck != "" {
				preds = append(preds, stats.ByPlayerDeck(deck))
			}
			if opponentDeck != "" {
				preds = append(preds, stats.ByOpponentDeck(opponentDeck))
			}
			if hero != "" {
				preds = append(preds, stats.ByHero(hero))
			}
			if opponent != "" {
				preds = append(preds, stats.ByOpponentClass(opponent))
			}

			subset := stats.Filter(ds.Games, preds...)
			player, opp := stats.CardStats(subset)

			a.log.Debug().Int("games", len(subset)).Int("player_cards", len(player)).Int("opponent_cards", len(opp)).Msg("card stats computed")

			written, err := output.write(cmd, export.CardRows(player, opp))
			if err != nil {
				return err
			}
			if !written {
				out := cmd.OutOrStdout()
				if ranged {
					fmt.Fprintf(out, "Period: %s\n", tr.FormatPeriod())
				}
				fmt.Fprintf(out, "%d games selected\n\n", len(subset))
				printCards(out, "Your Cards", player, minGames)
				printCards(out, "Opponent Cards", opp, minGames)
			}

			if output.chart != "" {
				cfg := charts.DefaultChartConfig()
				cfg.Subtitle = fmt.Sprintf("%d games, cards seen more than %d times", len(subset), minGames)
				if err := charts.RenderCardChart(player, minGames, cfg, output.chart); err != nil {
					return err
				}
				return output.openChart(cmd)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Game mode or \"both\" (default analysis.mode)")
	cmd.Flags().StringVar(&deck, "deck", "", "Your deck type, e.g. Tempo_Mage")
	cmd.Flags().StringVar(&opponentDeck, "opponent-deck", "", "Opponent deck type, e.g. Other_Warrior")
	cmd.Flags().StringVar(&hero, "hero", "", "Your class")
	cmd.Flags().StringVar(&opponent, "opponent", "", "Opponent class")
	cmd.Flags().IntVar(&minGames, "min-games", 0, "Hide cards seen this many times or fewer in tables and charts")
	period.register(cmd)
	output.register(cmd)

	return cmd
}
