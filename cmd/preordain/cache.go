package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/preordain/internal/identity"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local history cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.index.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No cached histories.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tGAMES\tUPDATED\tDATASET")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", identity.ShortKey(e.IdentityKey), e.ExpectedCount, e.UpdatedAt.Local().Format(time.DateTime), e.NormalizedRef)
			}
			return w.Flush()
		},
	})

	return cmd
}
