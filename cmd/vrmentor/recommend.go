package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/vrmentor/internal/service/agent"
	"github.com/sandevgo/vrmentor/internal/service/ui"
	"github.com/spf13/cobra"
)

var (
	recommendTopK int
	recommendJSON bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <query>",
	Short: "Recommend VR apps for a learning goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
		defer flushLog()

		e, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		topK := recommendTopK
		if topK <= 0 {
			topK = e.retrieval.DefaultTopK
		}

		res, err := e.recommend.Recommend(ctx, strings.Join(args, " "), topK)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if recommendJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if len(res.Items) == 0 {
			fmt.Fprintln(out, "No matching apps found.")
			return nil
		}
		if res.QueryUnderstanding != "" {
			fmt.Fprintf(out, "Understood as: %s\n\n", res.QueryUnderstanding)
		}
		for i, it := range res.Items {
			score := ui.ScoreStyle.Render(fmt.Sprintf("%d%%", agent.Percent(it.Score)))
			fmt.Fprintf(out, "%d. %s (%s) %s\n", i+1, it.Item.Name, it.Item.Category, score)
			if it.Reasoning != "" {
				fmt.Fprintf(out, "   %s\n", it.Reasoning)
			}
			if len(it.MatchedSkills) > 0 {
				fmt.Fprintf(out, "   skills: %s\n", strings.Join(it.MatchedSkills, ", "))
			}
			if it.IsBridged() {
				fmt.Fprintf(out, "   %s\n", ui.BridgeNote.Render("via: "+it.BridgeExplanation))
			}
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendTopK, "top-k", "k", 0, "number of apps to return (default RETRIEVAL_DEFAULT_TOP_K)")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "print the raw result as JSON")
	rootCmd.AddCommand(recommendCmd)
}
