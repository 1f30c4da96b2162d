package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/spf13/cobra"
)

var seedEmbed bool

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.json>",
	Short: "Import skills, apps and edges into the graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		catalog, err := readCatalog(args[0])
		if err != nil {
			return err
		}

		s, err := newStores(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		// The local store always holds the skills, since the vector index lives next to them.
		if err := s.local.Import(ctx, catalog); err != nil {
			return fmt.Errorf("import into sqlite: %w", err)
		}
		if s.graph != s.local {
			if err := s.graph.Import(ctx, catalog); err != nil {
				return fmt.Errorf("import into graph: %w", err)
			}
		}
		logger.Info().
			Int("skills", len(catalog.Skills)).
			Int("apps", len(catalog.Items)).
			Int("edges", len(catalog.Edges)).
			Msg("catalog imported")

		if seedEmbed {
			if _, err := s.embedMissing(ctx); err != nil {
				return err
			}
		}

		if err := s.active.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d skills, %d apps, %d edges. Active skills: %d\n",
			len(catalog.Skills), len(catalog.Items), len(catalog.Edges), s.active.Len())
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedEmbed, "embed", false, "embed new skills after import")
	rootCmd.AddCommand(seedCmd)
}

func readCatalog(path string) (core.Catalog, error) {
	var c core.Catalog

	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}

	c.Normalize()
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return c, nil
}
