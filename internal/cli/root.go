// Package cli implements the moviegraph command-line tool.
package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviegraph/internal/graph"
	"github.com/Clark-Hu/moviegraph/internal/ingest"
	"github.com/Clark-Hu/moviegraph/internal/logging"
)

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)
	root := &cobra.Command{
		Use:   "moviegraph",
		Short: "Build a rating graph from a ratings file and query it.",
		Long: `moviegraph loads a ratings CSV (index,userId,rating,title,genres) into an
in-memory rating graph and recommends movies from a short watch history.

  moviegraph recommend --data ratings.csv --seed "Heat=4.5" --seed "Ronin=3"
  `,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console or json)")

	newLogger := func(cmd *cobra.Command) zerolog.Logger {
		return logging.New(logging.Config{Level: logLevel, Format: logFormat, Output: cmd.ErrOrStderr()}, "moviegraph")
	}

	root.AddCommand(
		newTitlesCmd(newLogger),
		newRecommendCmd(newLogger),
		newImportCmd(newLogger),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type loggerFunc func(cmd *cobra.Command) zerolog.Logger

func addDataFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("data", "d", "", "path to the ratings CSV file")
	_ = cmd.MarkFlagRequired("data")
}

func loadCSVGraph(ctx context.Context, path string, logger zerolog.Logger) (*graph.Graph, error) {
	src, closer, err := ingest.OpenCSV(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return ingest.Build(ctx, src, logger)
}
