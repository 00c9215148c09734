package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gensec-template/gensec-template/internal/cache"
	"github.com/gensec-template/gensec-template/internal/catalog"
	"github.com/gensec-template/gensec-template/internal/config"
	"github.com/gensec-template/gensec-template/internal/lab"
	"github.com/gensec-template/gensec-template/internal/logger"
	"github.com/gensec-template/gensec-template/internal/parser"
	"github.com/gensec-template/gensec-template/internal/scraper"
)

// Version is the gensec-template release
const Version = "0.1.0"

const (
	ExitSuccess = 0
	ExitError   = 1
)

// app holds the global flags and the state resolved from them
type app struct {
	flagURL      string
	flagConfig   string
	flagCacheDir string
	flagRefresh  bool
	flagVerbose  bool

	cfg *config.Resolved
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "gensec-template",
		Short: "Generate answer templates for CS 475/575 Gen-Sec labs",
		Long: `gensec-template scrapes the CS 475/575 Generative Security Application Engineering
course website for lab assignments and generates Word (.docx) or Markdown templates
listing every deliverable question, one section per lab step.

Run 'gensec-template list' to see available labs.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	cmd.SetVersionTemplate("gensec-template version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flagURL, "url", "", "Course page listing the labs (or env: "+config.EnvBaseURL+")")
	pf.StringVar(&a.flagConfig, "config", config.DefaultPath(), "Config file")
	pf.StringVar(&a.flagCacheDir, "cache-dir", "", "Cache directory (or env: "+config.EnvCacheDir+", default "+config.DefaultCacheDir+")")
	pf.BoolVar(&a.flagRefresh, "refresh", false, "Ignore cached data and scrape the course website again")
	pf.BoolVar(&a.flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newListCmd(a),
		newGenerateCmd(a),
		newGenerateWeekCmd(a),
		newGenerateAllCmd(a),
		newPreviewCmd(a),
		newClearCacheCmd(a),
		newCacheInfoCmd(a),
		newConfigCmd(a),
	)

	return cmd
}

// setup resolves configuration and logging before any command runs
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.cfg = config.Resolve(a.flagConfig, a.flagURL)

	log, err := a.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	if a.cfg.Warning != nil {
		logger.Warn("Ignoring config file", logger.Fields{
			"path":  a.flagConfig,
			"error": a.cfg.Warning.Error(),
		})
	}

	logger.Debug("Resolved configuration", logger.Fields{
		"base_url":   a.cfg.BaseURL,
		"url_source": string(a.cfg.URLSource),
		"cache_dir":  a.cacheDir(),
	})
	return nil
}

// newLogger builds the logger from log_level and log_format; --verbose means debug
func (a *app) newLogger(w io.Writer) (*logger.Logger, error) {
	level := logger.LevelDebug
	if !a.flagVerbose {
		name := a.cfg.LogLevel
		if name == "" {
			name = config.DefaultLogLevel
		}
		l, err := logger.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level in config: %w", err)
		}
		level = l
	}

	switch a.cfg.LogFormat {
	case "", "text":
		return logger.NewConsole(level, w), nil
	case "json":
		return logger.New(level, w), nil
	default:
		return nil, fmt.Errorf("invalid log_format in config: %s (must be text or json)", a.cfg.LogFormat)
	}
}

// teardown prints run metrics in verbose mode
func (a *app) teardown(cmd *cobra.Command, args []string) {
	if !a.flagVerbose {
		return
	}
	lines := logger.MetricsSnapshot().Lines()
	if len(lines) == 0 {
		return
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, dimStyle.Render("Metrics:"))
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func (a *app) cacheDir() string {
	if a.flagCacheDir != "" {
		return a.flagCacheDir
	}
	return a.cfg.CacheDir
}

func (a *app) openCache() (*cache.Cache, error) {
	return cache.Open(a.cacheDir(), a.cfg.CacheTTLDuration())
}

func (a *app) newScraper(mode parser.Mode) *scraper.Scraper {
	return scraper.New(
		scraper.WithBaseURL(a.cfg.BaseURL),
		scraper.WithTimeout(a.cfg.TimeoutDuration()),
		scraper.WithRetries(a.cfg.MaxRetries, a.cfg.RetryDelayDuration()),
		scraper.WithMode(mode),
	)
}

// catalog wires a scraper and the cache together. The cache is optional: when it
// cannot be opened lookups go straight to the website. The returned func closes
// the cache.
func (a *app) catalog(mode parser.Mode, concurrency int) (*catalog.Catalog, func()) {
	opts := []catalog.Option{catalog.WithConcurrency(a.concurrency(concurrency))}
	if mode != parser.ModeBold {
		// cached labs were parsed in bold mode
		opts = append(opts, catalog.SkipLabCache())
	}

	var store catalog.Store
	closeFn := func() {}

	c, err := a.openCache()
	if err != nil {
		logger.Warn("Cache unavailable, scraping without it", logger.Fields{
			"dir":   a.cacheDir(),
			"error": err.Error(),
		})
	} else {
		store = c
		closeFn = func() {
			if err := c.Close(); err != nil {
				logger.Warn("Closing cache failed", logger.Fields{"error": err.Error()})
			}
		}
	}

	return catalog.New(a.newScraper(mode), store, opts...), closeFn
}

// mode returns the question extraction mode: --heuristic, else the configured mode
func (a *app) mode(heuristic bool) (parser.Mode, error) {
	if heuristic {
		return parser.ModeHeuristic, nil
	}
	return parser.ParseMode(a.cfg.Mode)
}

func (a *app) concurrency(flag int) int {
	if flag > 0 {
		return flag
	}
	if a.cfg.Concurrency > 0 {
		return a.cfg.Concurrency
	}
	return catalog.DefaultConcurrency
}

// Run executes the CLI with args and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return ExitError
	}
	return ExitSuccess
}

// printError reports a failed command with a hint for the common failures
func printError(w io.Writer, err error) {
	switch {
	case scraper.IsFetchError(err):
		printProblem(w, "Could not connect to the course website",
			"Check your internet connection and try again. "+
				"The website might also be temporarily unavailable.")
		logger.Debug("Fetch failed", logger.Fields{"error": err.Error()})
	case errors.Is(err, lab.ErrNotFound):
		printProblem(w, err.Error(), "Use 'gensec-template list' to see available labs")
	default:
		printProblem(w, err.Error(), "")
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
