package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/redisclient"
	"plex-newsletter/internal/storage"

	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Media source utilities",
}

var (
	recentCount   int
	recentNoCache bool
)

var sourceRecentCmd = &cobra.Command{
	Use:   "recent <movies|tvshows|music>",
	Short: "List recently added media from the configured source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		kind, err := document.ParseKind(args[0])
		if err != nil {
			return err
		}
		if !kind.IsMedia() {
			return fmt.Errorf("%s sections have no media", kind)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		var store *storage.RedisStore
		if redisclient.Ping(ctx, rdb) == nil {
			store = storage.NewRedisStore(rdb)
		}
		chain, err := newSource(cfg, store)
		if err != nil {
			return err
		}
		count := recentCount
		if count <= 0 {
			count = cfg.Source.Count
		}
		fetch := chain.Recent
		if recentNoCache {
			fetch = chain.Refresh
		}
		items, err := fetch(ctx, kind, count)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TITLE\tYEAR\tIMAGE")
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Title, it.Year, it.Image)
		}
		return tw.Flush()
	},
}

var sourceSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the saved media server settings",
}

func openStore(ctx context.Context) (*storage.RedisStore, func(), error) {
	cfg := GetConfig()
	rdb := redisclient.New(cfg.Redis)
	if err := redisclient.Ping(ctx, rdb); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	return storage.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved settings (token hidden)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, done, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer done()
		st, found, err := store.SourceSettings(ctx)
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintln(cmd.OutOrStdout(), "no saved settings; the config file values apply")
			return nil
		}
		st = st.Redacted()
		fmt.Fprintf(cmd.OutOrStdout(), "enabled: %t\nserverUrl: %s\ntoken: %s\n", st.Enabled, st.ServerURL, st.Token)
		return nil
	},
}

var (
	setServerURL string
	setToken     string
	setDisable   bool
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the media server URL and token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, done, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer done()
		st, _, err := store.SourceSettings(ctx)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("server-url") {
			st.ServerURL = strings.TrimRight(strings.TrimSpace(setServerURL), "/")
		}
		if cmd.Flags().Changed("token") {
			st.Token = strings.TrimSpace(setToken)
		}
		st.Enabled = !setDisable
		if st.Enabled && !st.Usable() {
			return errors.New("server url and token are required to enable the source")
		}
		if err := store.SaveSourceSettings(ctx, st); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "settings saved")
		return nil
	},
}

func init() {
	sourceRecentCmd.Flags().IntVarP(&recentCount, "count", "n", 0, "number of items (default source.count)")
	sourceRecentCmd.Flags().BoolVar(&recentNoCache, "no-cache", false, "bypass the redis cache")
	settingsSetCmd.Flags().StringVar(&setServerURL, "server-url", "", "media server URL, e.g. http://plex.local:32400")
	settingsSetCmd.Flags().StringVar(&setToken, "token", "", "media server token")
	settingsSetCmd.Flags().BoolVar(&setDisable, "disable", false, "keep the values but disable the integration")

	sourceSettingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	sourceCmd.AddCommand(sourceRecentCmd, sourceSettingsCmd)
	rootCmd.AddCommand(sourceCmd)
}
