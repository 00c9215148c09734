package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/gensec-template/gensec-template/internal/generator"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		flagStyle     string
		flagRaw       bool
		flagHeuristic bool
		flagWidth     int
	)

	cmd := &cobra.Command{
		Use:   "preview <number|id|url>",
		Short: "Show a lab's Markdown template in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.mode(flagHeuristic)
			if err != nil {
				return err
			}

			cat, closeCache := a.catalog(mode, 0)
			defer closeCache()

			l, err := cat.Lab(cmd.Context(), args[0], a.flagRefresh)
			if err != nil {
				return err
			}

			md, err := generator.Markdown(l, generator.Options{})
			if err != nil {
				return err
			}

			if flagRaw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}

			styleOpt := glamour.WithAutoStyle()
			if flagStyle != "auto" {
				styleOpt = glamour.WithStandardStyle(flagStyle)
			}
			renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(flagWidth))
			if err != nil {
				return fmt.Errorf("creating renderer: %w", err)
			}

			out, err := renderer.Render(md)
			if err != nil {
				return fmt.Errorf("rendering preview: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVar(&flagStyle, "style", "auto", "Render style: auto, dark, light or notty")
	cmd.Flags().BoolVar(&flagRaw, "raw", false, "Print the Markdown without rendering it")
	cmd.Flags().BoolVar(&flagHeuristic, "heuristic", false, "Also treat plain list items that read like deliverables as questions")
	cmd.Flags().IntVar(&flagWidth, "width", 80, "Wrap rendered text at this width")

	return cmd
}
