package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digitorus/memorycard/lookup"
)

func (a *app) lookupClient() *lookup.Client {
	l := a.cfg.Lookup
	return lookup.New(lookup.Config{
		MusicBrainzURL:  l.MusicBrainzURL,
		SetlistFMURL:    l.SetlistFMURL,
		SetlistFMAPIKey: l.SetlistFMAPIKey,
		UserAgent:       l.UserAgent,
		Timeout:         l.Timeout,
		MaxRetries:      l.MaxRetries,
	}, a.log)
}

func (a *app) lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Search MusicBrainz and setlist.fm to prefill a card",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "artist <query>",
		Short: "Search artists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), a.lookupClient().SearchArtists(cmd.Context(), args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "events <artist-id> [artist-name]",
		Short: "List events of an artist",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			return printJSON(cmd.OutOrStdout(), a.lookupClient().Events(cmd.Context(), args[0], name))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "setlist <artist> <YYYY-MM-DD>",
		Short: "Print the setlist of a concert",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := a.lookupClient().Setlist(cmd.Context(), args[0], args[1])
			if text == "" {
				return fmt.Errorf("no setlist found for %s on %s", args[0], args[1])
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	})
	return cmd
}
