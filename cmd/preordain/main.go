// Command preordain syncs a Track-o-Bot game history into a local cache
// and prints matchup and card statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string
	baseURL    string
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "preordain",
		Short:         "Sync and analyze your Track-o-Bot game history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.preordain/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Override storage.data_dir")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Override api.base_url")

	rootCmd.AddCommand(newSyncCmd(opts))
	rootCmd.AddCommand(newMatchupsCmd(opts))
	rootCmd.AddCommand(newCardsCmd(opts))
	rootCmd.AddCommand(newCacheCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}
