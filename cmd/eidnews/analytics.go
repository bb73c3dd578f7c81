package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AlexLem84/east-idaho-news-app/internal/store"
)

var (
	analyticsEvent     string
	analyticsLimit     int
	analyticsOlderThan string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Summarize the local analytics archive",
	RunE:  runAnalytics,
}

var analyticsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archived analytics events older than a span",
	RunE:  runAnalyticsPrune,
}

func init() {
	analyticsCmd.Flags().StringVarP(&analyticsEvent, "event", "e", "", "list recent events with this name instead of the summary")
	analyticsCmd.Flags().IntVarP(&analyticsLimit, "limit", "n", 20, "events to list with --event")
	analyticsPruneCmd.Flags().StringVar(&analyticsOlderThan, "older-than", "90d", "age cutoff (e.g. 30d, 720h)")
	analyticsCmd.AddCommand(analyticsPruneCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath()), 0o755); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening analytics archive: %w", err)
	}
	return st, nil
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if analyticsEvent != "" {
		events, err := st.Events(analyticsEvent, analyticsLimit)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, e := range events {
			fmt.Printf("%-16s %s %v\n", humanize.RelTime(e.Time, now, "ago", "from now"), e.SessionID, e.Params)
		}
		return nil
	}

	counts, err := st.CountByName()
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		fmt.Println("No analytics recorded.")
		return nil
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, n := range names {
		fmt.Printf("%-20s %8s\n", n, humanize.Comma(int64(counts[n])))
	}
	return nil
}

func runAnalyticsPrune(cmd *cobra.Command, args []string) error {
	d, err := parseSpan(analyticsOlderThan)
	if err != nil {
		return fmt.Errorf("invalid --older-than value: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Prune(time.Now().Add(-d))
	if err != nil {
		return fmt.Errorf("pruning: %w", err)
	}
	if n == 0 {
		fmt.Println("Nothing to prune.")
		return nil
	}
	fmt.Printf("Pruned %s event(s).\n", humanize.Comma(n))
	return nil
}
