package cmd

import (
	"fmt"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/draft"

	"github.com/spf13/cobra"
)

var debugParseCmd = &cobra.Command{
	Use:   "debug-parse <draft.md>",
	Short: "Debug: parse a draft, replay it and print its outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		d, err := draft.ParseFile(args[0])
		if err != nil {
			return err
		}
		doc := document.New(document.WithSectionTitle(cfg.Newsletter.DefaultSectionTitle))
		// imports are listed, not fetched
		if err := d.Apply(doc, nil); err != nil {
			return err
		}
		n := doc.Snapshot()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "title: %q\nsubject: %q\nintroduction bytes: %d\n", n.Title, n.Subject, len(n.Introduction))
		for i, s := range n.Sections {
			switch {
			case !s.Kind.IsMedia():
				fmt.Fprintf(out, "%s [%s] %q text bytes: %d\n", s.ID, s.Kind, s.Title, len(s.Content))
			default:
				fmt.Fprintf(out, "%s [%s] %q items: %d", s.ID, s.Kind, s.Title, len(s.Items))
				if imp := d.Sections[i].Import; imp > 0 {
					fmt.Fprintf(out, " (+%d to import)", imp)
				}
				fmt.Fprintln(out)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugParseCmd)
}
