package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshStats bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the active skill set from the graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		s, err := newStores(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		if err := s.index.Reload(ctx); err != nil {
			return fmt.Errorf("reload skill index: %w", err)
		}
		if err := s.active.Refresh(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Active skills: %d\n", s.active.Len())
		if !refreshStats {
			return nil
		}

		stats, err := s.graph.Stats(ctx)
		if err != nil {
			return err
		}
		indexed, err := s.index.Len(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Skills:        %d (%d embedded)\n", stats.Skills, indexed)
		fmt.Fprintf(out, "Apps:          %d\n", stats.Items)
		fmt.Fprintf(out, "Edges:         %d\n", stats.Edges)
		fmt.Fprintf(out, "Graph active:  %d\n", stats.ActiveSkills)
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshStats, "stats", false, "print graph statistics")
	rootCmd.AddCommand(refreshCmd)
}
