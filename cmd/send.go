package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"plex-newsletter/internal/tautulli"

	"github.com/spf13/cobra"
)

var sendSubject string

var sendCmd = &cobra.Command{
	Use:   "send <newsletter.html>",
	Short: "Deliver a rendered newsletter through a Tautulli notification agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg.Tautulli.BaseURL == "" || cfg.Tautulli.APIKey == "" || cfg.Tautulli.NotifierID <= 0 {
			return errors.New("tautulli config missing: set tautulli.base_url, tautulli.api_key and tautulli.notifier_id in config.yaml")
		}
		body, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		subject := strings.TrimSpace(sendSubject)
		if subject == "" {
			subject = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		tm := 30 * time.Second
		cli := tautulli.New(cfg.Tautulli.BaseURL, cfg.Tautulli.APIKey, tm).WithNotifier(cfg.Tautulli.NotifierID)
		ctx, cancel := context.WithTimeout(context.Background(), tm)
		defer cancel()

		if err := cli.Notify(ctx, subject, string(body)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Delivered '%s' through notifier %d\n", subject, cfg.Tautulli.NotifierID)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVarP(&sendSubject, "subject", "s", "", "email subject (default: file name)")
	rootCmd.AddCommand(sendCmd)
}
