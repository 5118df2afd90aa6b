package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/preordain/internal/identity"
	"github.com/ramonehamilton/preordain/internal/stats"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var showWarnings bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the game history, reusing the cache when nothing changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.identity()
			if err != nil {
				return err
			}

			result, err := a.reconciler.Sync(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := "fetched"
			if result.CacheHit {
				source = "cache hit"
			}
			fmt.Fprintf(out, "Synced %s (%s): %d games, %d pages requested, %s\n",
				id.Username, identity.ShortKey(result.Entry.IdentityKey), result.TotalCount, result.PagesFetched, source)

			printSummary(out, stats.Summarize(result.Dataset.Games))

			if n := result.Dataset.WarningCount(); n > 0 {
				fmt.Fprintf(out, "%d normalization warnings\n", n)
				if showWarnings {
					for _, w := range result.Dataset.Warnings {
						fmt.Fprintf(out, "  %s\n", w)
					}
				}
			}

			a.log.Debug().Interface("client_stats", a.client.Stats()).Str("breaker", a.client.BreakerState()).Msg("history client stats")
			return nil
		},
	}

	cmd.Flags().BoolVar(&showWarnings, "warnings", false, "List normalization warnings")

	return cmd
}
