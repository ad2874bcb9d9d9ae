package cmd

import (
	"context"
	"fmt"
	"time"

	"plex-newsletter/internal/redisclient"

	"github.com/spf13/cobra"
)

// storeCmd groups Redis-related subcommands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Redis store utilities",
}

// pingCmd pings the configured Redis server.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and print PONG",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

var lastExportCmd = &cobra.Command{
	Use:   "last-export <title>",
	Short: "Show when a newsletter title was last exported",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, done, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer done()
		at, ok, err := store.LastExport(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "'%s' has not been exported\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "'%s' last exported %s\n", args[0], at.Local().Format(time.RFC1123))
		return nil
	},
}

func init() {
	storeCmd.AddCommand(pingCmd, lastExportCmd)
	rootCmd.AddCommand(storeCmd)
}
