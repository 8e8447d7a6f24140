package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"contact-gateway/internal/config"
	rlinfra "contact-gateway/middleware/ratelimit/infra"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cumulative submission counters per outcome (stats.backend=redis)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Stats.Backend != "redis" {
			return fmt.Errorf("stats: backend %q keeps no shared counters, only redis can be read", cfg.Stats.Backend)
		}

		rdb := newRedisClient(cfg.Stats.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		totals, err := rlinfra.NewRedisStatsStore(rdb, rlinfra.WithStatsPrefix(cfg.Stats.Redis.Prefix)).Totals(ctx)
		if err != nil {
			return fmt.Errorf("stats: read %s: %w", cfg.Stats.Redis.Addr, err)
		}
		return printTotals(cmd, totals)
	},
}

func printTotals(cmd *cobra.Command, totals map[string]int64) error {
	outcomes := make([]string, 0, len(totals))
	for o := range totals {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OUTCOME\tCOUNT")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%d\n", o, totals[o])
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
