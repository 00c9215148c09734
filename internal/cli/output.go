package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gensec-template/gensec-template/internal/cache"
	"github.com/gensec-template/gensec-template/internal/config"
	"github.com/gensec-template/gensec-template/internal/lab"
)

const courseTitle = "CS 475/575: Generative Security Application Engineering"

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// LabList is the list command's JSON output
type LabList struct {
	LabCount    int        `json:"lab_count"`
	LastUpdated time.Time  `json:"last_updated"`
	Labs        []*lab.Lab `json:"labs"`
}

func formatDuration(minutes int) string {
	if minutes <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d min", minutes)
}

// writeLabTable outputs labs as a table followed by a total and a usage hint
func writeLabTable(w io.Writer, labs []*lab.Lab) {
	if len(labs) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No labs found."))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(courseTitle)
	t.AppendHeader(table.Row{"Number", "Title", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	for _, l := range labs {
		t.AppendRow(table.Row{l.Number, l.Title, formatDuration(l.DurationMinutes)})
	}
	t.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Total: %d labs", len(labs))))
	fmt.Fprintln(w, dimStyle.Render("Run 'gensec-template generate <number>' to create a template"))
}

// writeLabSummary outputs the result of generating one template
func writeLabSummary(w io.Writer, l *lab.Lab, path string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render("Template generated successfully!"))
	field(w, "", "Lab", l.DisplayTitle())
	field(w, "", "Sections", l.SectionCount())
	field(w, "", "Questions", l.TotalQuestions())
	field(w, "", "Screenshots", l.TotalScreenshots())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Output:"), path)
}

// writeCacheInfo outputs the cache-info report
func writeCacheInfo(w io.Writer, info *cache.Info) {
	fmt.Fprintln(w, titleStyle.Render("Cache Information"))
	fmt.Fprintln(w)
	field(w, "  ", "Directory", info.Directory)
	field(w, "  ", "Size", fmt.Sprintf("%.1f KB", float64(info.SizeBytes)/1024))
	field(w, "  ", "Entries", info.EntryCount)

	if info.IndexCached {
		field(w, "  ", "Lab index", fmt.Sprintf("cached (%s)", cache.FormatAge(info.IndexAge)))
	} else {
		field(w, "  ", "Lab index", "not cached")
	}

	if len(info.CachedLabs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("Cached labs (%d):", len(info.CachedLabs))))
		for _, id := range info.CachedLabs {
			fmt.Fprintf(w, "    - %s\n", id)
		}
	}
}

// writeConfigDescription outputs the config show report
func writeConfigDescription(w io.Writer, d config.Description, r *config.Resolved) {
	fmt.Fprintln(w, titleStyle.Render("Configuration"))
	fmt.Fprintln(w)

	fileState := "not found"
	if d.ConfigFileExists {
		fileState = "exists"
	}
	envState := "not set"
	if d.EnvVarSet {
		envState = "set"
	}

	field(w, "  ", "Config file", fmt.Sprintf("%s (%s)", d.ConfigFile, fileState))
	field(w, "  ", "Environment", fmt.Sprintf("%s (%s)", d.EnvVar, envState))
	field(w, "  ", "Default URL", d.DefaultURL)
	field(w, "  ", "Effective URL", fmt.Sprintf("%s %s", accentStyle.Render(d.EffectiveURL), dimStyle.Render("("+string(d.EffectiveSource)+")")))
	if d.Warning != "" {
		field(w, "  ", "Warning", warnStyle.Render(d.Warning))
	}

	fmt.Fprintln(w)
	field(w, "  ", "Cache dir", r.CacheDir)
	field(w, "  ", "Cache TTL", r.CacheTTLDuration())
	field(w, "  ", "Output dir", r.OutputDir)
	field(w, "  ", "Timeout", r.TimeoutDuration())
	field(w, "  ", "Max retries", r.MaxRetries)
	field(w, "  ", "Retry delay", r.RetryDelayDuration())
	field(w, "  ", "Concurrency", r.Concurrency)
	field(w, "  ", "Format", r.Format)
	field(w, "  ", "Mode", r.Mode)
	field(w, "  ", "Log level", r.LogLevel)
	field(w, "  ", "Log format", r.LogFormat)
}
