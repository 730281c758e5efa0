package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newCacheCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Quote cache management",
		Long: `Inspect or clear the SQLite quote cache.

Enable the cache with [cache] enabled = true in config.toml or PRICER_CACHE_PATH.
Quotes are keyed on the request together with the engine settings that change a
price (paths, steps, seed, chunk size, antithetic sampling, bridge correction,
day count, and bump sizes for Greeks).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(cmd); err != nil {
				return err
			}
			if app.Cache == nil {
				return fmt.Errorf("quote cache is disabled or unavailable (path %s)", app.Config.Cache.Path)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			stats, err := app.Cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("Quote cache")
			output.Printf("  Path:     %s\n", app.Config.Cache.Path)
			output.Printf("  Entries:  %d\n", stats.Entries)
			output.Printf("  Hits:     %d\n", stats.TotalHits)
			output.Printf("  Oldest:   %s\n", FormatDate(stats.Oldest))
			output.Printf("  Newest:   %s\n", FormatDate(stats.Newest))
			if len(stats.ByKind) == 0 {
				return nil
			}

			kinds := make([]string, 0, len(stats.ByKind))
			for k := range stats.ByKind {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)

			output.Println()
			table := NewTable(output, "Kind", "Quotes")
			for _, k := range kinds {
				table.AddRow(k, fmt.Sprintf("%d", stats.ByKind[k]))
			}
			table.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			n, err := app.Cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int64{"deleted": n})
			}
			output.Success("✓ Deleted %d cached quotes", n)
			return nil
		},
	})

	return cmd
}
