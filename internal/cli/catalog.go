package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-battle/internal/question"
)

func newCatalogCmd(catalogPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List question categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := question.Load(*catalogPath)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), catalog, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printCatalog(out io.Writer, catalog *question.Catalog, asJSON bool) error {
	categories := catalog.Categories()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(categories)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tLABEL\tEASY\tMEDIUM\tHARD\tTOTAL")
	for _, c := range categories {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			c.Name, c.Label,
			c.ByDifficulty[question.DifficultyEasy],
			c.ByDifficulty[question.DifficultyMedium],
			c.ByDifficulty[question.DifficultyHard],
			c.Total)
	}
	return tw.Flush()
}
