package generator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gensec-template/gensec-template/internal/lab"
)

// Options controls optional template content
type Options struct {
	// TOC adds a table of contents page to Word templates
	TOC bool
	// FrontMatter adds a YAML header with lab metadata to Markdown templates
	FrontMatter bool
	// GeneratedAt stamps Markdown front matter. Zero means now.
	GeneratedAt time.Time
}

func (o Options) generatedAt() time.Time {
	if o.GeneratedAt.IsZero() {
		return time.Now()
	}
	return o.GeneratedAt
}

// Write renders a lab in the given format
func Write(w io.Writer, l *lab.Lab, f Format, opts Options) error {
	switch f {
	case FormatDocx:
		return WriteDocx(w, l, opts)
	case FormatMarkdown:
		return WriteMarkdown(w, l, opts)
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
}

// Generate writes the template for a lab to path, creating parent directories,
// and returns the path written.
func Generate(l *lab.Lab, f Format, path string, opts Options) (string, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	if err := Write(out, l, f, opts); err != nil {
		out.Close() // nolint:errcheck
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	return path, nil
}
