package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviegraph/internal/ingest"
	"github.com/Clark-Hu/moviegraph/internal/repository"
	"github.com/Clark-Hu/moviegraph/internal/store"
)

func newImportCmd(newLogger loggerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-load a ratings CSV into the Postgres rating_events table.",
		Long: `Validates every record and, if all are well formed, copies them into
rating_events in one transaction. Nothing is written when any record is bad.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			dbURL, _ := cmd.Flags().GetString("db-url")
			migrate, _ := cmd.Flags().GetBool("migrate")
			logger := newLogger(cmd)

			src, closer, err := ingest.OpenCSV(path)
			if err != nil {
				return err
			}
			defer closer.Close()

			connCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			st, err := store.New(connCtx, dbURL, store.Options{
				MaxConns:               2,
				ConnTimeout:            10 * time.Second,
				StatementCacheCapacity: 64,
				Logger:                 logger,
			})
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer st.Close()

			if migrate {
				if err := st.Migrate(cmd.Context()); err != nil {
					return err
				}
			}
			n, err := repository.New(st).Ratings.Import(cmd.Context(), src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d ratings\n", n)
			return nil
		},
	}
	addDataFlag(cmd)
	cmd.Flags().String("db-url", "", "Postgres connection URL")
	_ = cmd.MarkFlagRequired("db-url")
	cmd.Flags().Bool("migrate", false, "create the rating_events table before importing")
	return cmd
}
