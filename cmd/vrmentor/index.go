package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/providers/rag"
	"github.com/sandevgo/vrmentor/internal/storage/sqlite"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/spf13/cobra"
)

const indexBatch = 32

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed skills that have no vector for the configured model",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		s, err := newStores(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		n, err := s.embedMissing(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d skills with %s\n", n, s.embedder.GetModelName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func (s *stores) embedMissing(ctx context.Context) (int, error) {
	return embedSkills(ctx, s.index, s.embedder)
}

// embedSkills fills in vectors for skills not yet embedded with enc's model.
func embedSkills(ctx context.Context, index *sqlite.SkillIndex, enc rag.DualEncoder) (int, error) {
	logger := log.FromCtx(ctx)
	model := enc.GetModelName()

	missing, err := index.MissingEmbeddings(ctx, model)
	if err != nil {
		return 0, err
	}

	done := 0
	for start := 0; start < len(missing); start += indexBatch {
		batch := missing[start:min(start+indexBatch, len(missing))]

		texts := make([]string, len(batch))
		for i, sk := range batch {
			texts[i] = skillText(sk)
		}
		vecs, err := enc.EncodePassages(ctx, texts)
		if err != nil {
			return done, fmt.Errorf("embed skills: %w", err)
		}

		for i, sk := range batch {
			if err := index.SetEmbedding(ctx, sk.ID, vecs[i], model); err != nil {
				return done, err
			}
			done++
		}
		logger.Info().Int("done", done).Int("total", len(missing)).Msg("embedding skills")
	}

	if err := index.Reload(ctx); err != nil {
		return done, err
	}
	return done, nil
}

// skillText is the passage embedded for a skill: its name plus aliases.
func skillText(sk core.Skill) string {
	if len(sk.Aliases) == 0 {
		return sk.Name
	}
	return sk.Name + " (" + strings.Join(sk.Aliases, ", ") + ")"
}
