package cli

import (
	"github.com/spf13/cobra"

	"github.com/gensec-template/gensec-template/internal/parser"
)

func newListCmd(a *app) *cobra.Command {
	var (
		flagFormat string
		flagSort   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all available labs from the course website",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flagFormat)
			if err != nil {
				return err
			}
			order, err := ParseSortOrder(flagSort)
			if err != nil {
				return err
			}

			cat, closeCache := a.catalog(parser.ModeBold, 0)
			defer closeCache()

			idx, err := cat.Index(cmd.Context(), a.flagRefresh)
			if err != nil {
				return err
			}

			labs := append(idx.Labs[:0:0], idx.Labs...)
			sortLabs(labs, order)

			if format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), &LabList{
					LabCount:    len(labs),
					LastUpdated: idx.LastUpdated,
					Labs:        labs,
				})
			}
			writeLabTable(cmd.OutOrStdout(), labs)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", "number", "Sort order: number, title or id")

	return cmd
}
