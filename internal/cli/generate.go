package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gensec-template/gensec-template/internal/catalog"
	"github.com/gensec-template/gensec-template/internal/generator"
	"github.com/gensec-template/gensec-template/internal/lab"
	"github.com/gensec-template/gensec-template/internal/logger"
	"github.com/gensec-template/gensec-template/internal/parser"
)

// templateFlags are shared by every command that writes templates
type templateFlags struct {
	format      string
	toc         bool
	frontMatter bool
	heuristic   bool
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: docx or md (default from config, docx)")
	cmd.Flags().BoolVar(&f.toc, "toc", false, "Add a table of contents page to .docx templates")
	cmd.Flags().BoolVar(&f.frontMatter, "front-matter", false, "Add a YAML metadata header to .md templates")
	cmd.Flags().BoolVar(&f.heuristic, "heuristic", false, "Also treat plain list items that read like deliverables as questions")
}

func (f *templateFlags) resolve(a *app) (generator.Format, generator.Options, parser.Mode, error) {
	name := f.format
	if name == "" {
		name = a.cfg.Format
	}
	format, err := generator.ParseFormat(name)
	if err != nil {
		return "", generator.Options{}, "", err
	}

	mode, err := a.mode(f.heuristic)
	if err != nil {
		return "", generator.Options{}, "", err
	}

	return format, generator.Options{TOC: f.toc, FrontMatter: f.frontMatter}, mode, nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		flags      templateFlags
		flagOutput string
	)

	cmd := &cobra.Command{
		Use:   "generate <number|id|url>",
		Short: "Generate a template for a specific lab",
		Long: `Generate a template for a specific lab.

The lab may be given by number (01.3), ID (G01.3_ProgramModel) or URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, opts, mode, err := flags.resolve(a)
			if err != nil {
				return err
			}

			cat, closeCache := a.catalog(mode, 0)
			defer closeCache()

			l, err := cat.Lab(cmd.Context(), args[0], a.flagRefresh)
			if err != nil {
				return err
			}

			path := flagOutput
			if path == "" {
				path = filepath.Join(a.cfg.OutputDir, generator.FileName(l, format))
			}

			path, err = generator.Generate(l, format, path, opts)
			if err != nil {
				return err
			}

			logger.Info("Generated template", logger.Fields{"lab_id": l.ID, "path": path})
			writeLabSummary(cmd.OutOrStdout(), l, path)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default <output dir>/<number>_<title>.<format>)")

	return cmd
}

// batchFlags are shared by generate-week and generate-all
type batchFlags struct {
	templateFlags
	outputDir   string
	concurrency int
}

func (f *batchFlags) register(cmd *cobra.Command) {
	f.templateFlags.register(cmd)
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "d", "", "Output directory (default from config, ./output)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, fmt.Sprintf("Lab pages fetched at once (default from config, %d)", catalog.DefaultConcurrency))
}

func newGenerateWeekCmd(a *app) *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "generate-week <week>",
		Short: "Generate templates for all labs in a week",
		Long: `Generate templates for all labs in a week.

The week selects every lab numbered <week>.x, so "1" or "01" matches 01.1, 01.2 and so on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generateBatch(cmd, &flags, func(ctx context.Context, cat *catalog.Catalog) ([]*lab.Lab, string, error) {
				labs, err := cat.Week(ctx, args[0], a.flagRefresh)
				if err != nil {
					return nil, "", err
				}
				return labs, "week " + lab.NormalizeWeek(args[0]), nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newGenerateAllCmd(a *app) *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "generate-all",
		Short: "Generate templates for all available labs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generateBatch(cmd, &flags, func(ctx context.Context, cat *catalog.Catalog) ([]*lab.Lab, string, error) {
				idx, err := cat.Index(ctx, a.flagRefresh)
				if err != nil {
					return nil, "", err
				}
				if idx.LabCount() == 0 {
					return nil, "", fmt.Errorf("%w: the course page lists no labs", lab.ErrNotFound)
				}
				labs := append(idx.Labs[:0:0], idx.Labs...)
				sortLabs(labs, SortByNumber)
				return labs, fmt.Sprintf("all %d labs", len(labs)), nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

type selectLabs func(ctx context.Context, cat *catalog.Catalog) ([]*lab.Lab, string, error)

// generateBatch writes a template for every selected lab. Labs that fail are
// reported and skipped; the command only fails when no template was written.
func (a *app) generateBatch(cmd *cobra.Command, flags *batchFlags, selectFn selectLabs) error {
	format, opts, mode, err := flags.resolve(a)
	if err != nil {
		return err
	}

	dir := flags.outputDir
	if dir == "" {
		dir = a.cfg.OutputDir
	}

	cat, closeCache := a.catalog(mode, flags.concurrency)
	defer closeCache()

	labs, what, err := selectFn(cmd.Context(), cat)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Generating templates for %s...", what)))
	fmt.Fprintln(w)

	results := cat.Labs(cmd.Context(), labs, a.flagRefresh)
	success := writeBatch(w, results, dir, format, opts)

	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Generated %d/%d templates", success, len(labs))))
	fmt.Fprintln(w, dimStyle.Render("Output directory: "+dir))

	if success == 0 {
		return fmt.Errorf("no templates generated for %s", what)
	}
	return nil
}

// writeBatch generates the template for each result and reports one line per lab
func writeBatch(w io.Writer, results []catalog.Result, dir string, format generator.Format, opts generator.Options) int {
	success := 0
	for _, r := range results {
		fmt.Fprintf(w, "  Processing %s...\n", r.Lab.DisplayTitle())

		if r.Err != nil {
			fmt.Fprintf(w, "    %s %v\n", warnStyle.Render("Warning: could not fetch lab:"), r.Err)
			logger.Warn("Skipping lab", logger.Fields{"lab_id": r.Lab.ID, "error": r.Err.Error()})
			continue
		}

		path, err := generator.Generate(r.Lab, format, filepath.Join(dir, generator.FileName(r.Lab, format)), opts)
		if err != nil {
			fmt.Fprintf(w, "    %s %v\n", errorStyle.Render("Error:"), err)
			continue
		}

		fmt.Fprintf(w, "    %s %s (%d sections, %d questions)\n",
			successStyle.Render("Created:"), filepath.Base(path),
			r.Lab.SectionCount(), r.Lab.TotalQuestions())
		success++
	}
	return success
}
