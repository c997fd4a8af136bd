package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviegraph/internal/recommend"
)

func newRecommendCmd(newLogger loggerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recommend",
		Aliases: []string{"r"},
		Short:   "Recommend movies from a watch history.",
		Example: `moviegraph recommend --data ratings.csv --seed "Heat=4.5" --seed "Amelie=2" --limit 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			rawSeeds, _ := cmd.Flags().GetStringArray("seed")
			limit, _ := cmd.Flags().GetInt("limit")
			neighbors, _ := cmd.Flags().GetInt("neighbors")

			history := make([]recommend.Seed, 0, len(rawSeeds))
			for _, raw := range rawSeeds {
				seed, err := parseSeed(raw)
				if err != nil {
					return err
				}
				history = append(history, seed)
			}

			g, err := loadCSVGraph(cmd.Context(), path, newLogger(cmd))
			if err != nil {
				return err
			}
			params := recommend.DefaultParams()
			params.Neighbors = neighbors
			recs, err := recommend.NewEngine(g, params).Recommend(history, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tSCORE\tMATCHES\tGENRE\tAVG")
			for _, rec := range recs {
				fmt.Fprintf(tw, "%s\t%.3f\t%d\t%.3f\t%.2f\n", rec.Title, rec.Score, rec.MatchCount, rec.GenreScore, rec.AverageRating)
			}
			return tw.Flush()
		},
	}
	addDataFlag(cmd)
	cmd.Flags().StringArrayP("seed", "s", nil, `watched movie as "Title=rating", repeatable`)
	cmd.Flags().IntP("limit", "l", recommend.DefaultLimit, "maximum number of recommendations")
	cmd.Flags().Int("neighbors", recommend.DefaultNeighbors, "closest raters consulted per seed")
	return cmd
}

// parseSeed splits "Title=rating" on the last '=' so titles may contain '='.
func parseSeed(raw string) (recommend.Seed, error) {
	i := strings.LastIndex(raw, "=")
	if i <= 0 || i == len(raw)-1 {
		return recommend.Seed{}, fmt.Errorf("seed %q: want Title=rating", raw)
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(raw[i+1:]), 64)
	if err != nil {
		return recommend.Seed{}, fmt.Errorf("seed %q: %w", raw, err)
	}
	return recommend.Seed{Title: strings.TrimSpace(raw[:i]), Rating: rating}, nil
}
