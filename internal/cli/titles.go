package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTitlesCmd(newLogger loggerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "titles",
		Aliases: []string{"t"},
		Short:   "List every movie title in the ratings file, sorted.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			g, err := loadCSVGraph(cmd.Context(), path, newLogger(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, title := range g.MovieTitles() {
				fmt.Fprintln(out, title)
			}
			return nil
		},
	}
	addDataFlag(cmd)
	return cmd
}
