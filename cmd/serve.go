package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plex-newsletter/internal/editor"
	"plex-newsletter/internal/redisclient"
	"plex-newsletter/internal/storage"
	"plex-newsletter/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCollect bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor API and the recently-added collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Redis client
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		var store *storage.RedisStore
		if err := redisclient.Ping(ctx, rdb); err != nil {
			slog.Warn("serve: redis unavailable, settings and cache disabled", "addr", cfg.Redis.Addr, "err", err)
		} else {
			store = storage.NewRedisStore(rdb)
		}

		flavor, err := pickFlavor(cfg, "")
		if err != nil {
			return err
		}
		chain, err := newSource(cfg, store)
		if err != nil {
			return err
		}

		h := &editor.Handler{
			Sessions:    editor.NewSessions(cfg.Newsletter.DefaultSectionTitle),
			Renderer:    newRenderer(cfg),
			Flavor:      flavor,
			Source:      chain,
			ImportCount: cfg.Source.Count,
		}
		ws := []worker.Worker{
			&worker.SessionJanitor{Sessions: h.Sessions, Idle: cfg.SessionTTL()},
		}
		if store != nil {
			h.Settings = store
			if serveCollect {
				slog.Info("starting recently-added collector", "source", chain.Name(), "interval", cfg.FetchInterval())
				ws = append(ws, &worker.RecentCollector{
					Source:   chain,
					Count:    cfg.Source.Count,
					Interval: cfg.FetchInterval(),
				})
			}
		}

		gin.SetMode(gin.ReleaseMode)
		router := editor.NewRouter(h, func() gin.H {
			return gin.H{"source": chain.Name(), "breaker": chain.guarded.State(), "redis": store != nil}
		})
		ws = append(ws, &worker.HTTPServer{Server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}})

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		return worker.NewManager(ws...).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveCollect, "collect", true, "keep the recently-added cache warm in the background")
	rootCmd.AddCommand(serveCmd)
}
