package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"plex-newsletter/internal/ai"
	"plex-newsletter/internal/document"
	"plex-newsletter/internal/draft"
	"plex-newsletter/internal/redisclient"
	"plex-newsletter/internal/source"
	"plex-newsletter/internal/storage"

	"github.com/spf13/cobra"
)

var (
	buildFlavor       string
	buildOut          string
	buildStdout       bool
	buildAIDescribe   bool
	buildAIIntro      bool
	buildInlineImages bool
)

var buildCmd = &cobra.Command{
	Use:   "build <draft.md>",
	Short: "Render a newsletter draft to an HTML file",
	Long: "Reads a Markdown draft with YAML frontmatter (title, subject, sections) whose body is the introduction,\n" +
		"then writes <output_dir>/newsletter-<date>.html.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		flavor, err := pickFlavor(cfg, buildFlavor)
		if err != nil {
			return err
		}

		// Redis is optional here: it only backs caching, saved settings and export records.
		var store *storage.RedisStore
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		if err := redisclient.Ping(ctx, rdb); err != nil {
			slog.Warn("build: redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "err", err)
		} else {
			store = storage.NewRedisStore(rdb)
		}

		var src source.Source
		importer := func(kind document.Kind, count int) ([]document.MediaEntryInput, error) {
			if src == nil {
				chain, err := newSource(cfg, store)
				if err != nil {
					return nil, err
				}
				src = chain
			}
			return src.Recent(ctx, kind, count)
		}

		doc := document.New(document.WithSectionTitle(cfg.Newsletter.DefaultSectionTitle))
		if err := draft.Load(args[0], doc, importer); err != nil {
			return fmt.Errorf("load draft: %w", err)
		}

		if buildAIDescribe || buildAIIntro {
			w, err := newWriter(cfg)
			if err != nil {
				return err
			}
			if buildAIDescribe {
				n := ai.DescribeMissing(ctx, w, doc, cfg.Newsletter.Language)
				slog.Info("build: descriptions written", "count", n)
			}
			if buildAIIntro {
				if err := ai.IntroduceIfEmpty(ctx, w, doc, cfg.Newsletter.Language); err != nil {
					slog.Warn("build: introduction not written", "err", err)
				}
			}
		}

		n := doc.Snapshot()
		if strings.TrimSpace(n.Title) == "" {
			return errors.New("the newsletter needs a title before it can be exported")
		}
		if n.IsEmpty() {
			return errors.New("the newsletter is empty: add an introduction or a section")
		}
		if buildInlineImages {
			newInliner(ctx, cfg, store).InlineAll(ctx, &n)
		}

		r := newRenderer(cfg)
		now := time.Now()
		html, err := r.Render(n, flavor, now)
		if err != nil {
			return err
		}
		if buildStdout {
			_, err := fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		}

		out := buildOut
		if out == "" {
			out = filepath.Join(cfg.Newsletter.OutputDir, r.ExportFileName(now))
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
			return err
		}
		slog.Info("build: newsletter written", "path", out, "flavor", flavor, "sections", len(n.Sections))

		if store != nil {
			if err := store.MarkExported(ctx, n.Title, now); err != nil {
				slog.Warn("build: could not record export", "err", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildFlavor, "flavor", "", "output flavor: styled or tabular (default from config)")
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "output file (default <output_dir>/newsletter-<date>.html)")
	buildCmd.Flags().BoolVar(&buildStdout, "stdout", false, "write the HTML to stdout instead of a file")
	buildCmd.Flags().BoolVar(&buildAIDescribe, "ai-describe", false, "write missing media descriptions with OpenAI")
	buildCmd.Flags().BoolVar(&buildAIIntro, "ai-intro", false, "write the introduction with OpenAI when the draft has none")
	buildCmd.Flags().BoolVar(&buildInlineImages, "inline-images", false, "embed posters as data URIs")
	rootCmd.AddCommand(buildCmd)
}
