package generator

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gensec-template/gensec-template/internal/lab"
)

// frontMatter is the YAML header written above a Markdown template
type frontMatter struct {
	LabID           string    `yaml:"lab_id"`
	Number          string    `yaml:"number"`
	Title           string    `yaml:"title"`
	URL             string    `yaml:"url"`
	DurationMinutes int       `yaml:"duration_minutes,omitempty"`
	Sections        int       `yaml:"sections"`
	Questions       int       `yaml:"questions"`
	Screenshots     int       `yaml:"screenshots"`
	OdinIDs         int       `yaml:"odinid_questions"`
	Generated       time.Time `yaml:"generated"`
}

func newFrontMatter(l *lab.Lab, generated time.Time) frontMatter {
	return frontMatter{
		LabID:           l.ID,
		Number:          l.Number,
		Title:           l.Title,
		URL:             l.URL,
		DurationMinutes: l.DurationMinutes,
		Sections:        l.SectionCount(),
		Questions:       l.TotalQuestions(),
		Screenshots:     l.TotalScreenshots(),
		OdinIDs:         l.TotalOdinIDs(),
		Generated:       generated.UTC().Truncate(time.Second),
	}
}

// Markdown returns the Markdown template for a lab
func Markdown(l *lab.Lab, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, l, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteMarkdown writes the Markdown template for a lab
func WriteMarkdown(w io.Writer, l *lab.Lab, opts Options) error {
	var b strings.Builder

	if opts.FrontMatter {
		meta, err := yaml.Marshal(newFrontMatter(l, opts.generatedAt()))
		if err != nil {
			return fmt.Errorf("encoding front matter: %w", err)
		}
		b.WriteString("---\n")
		b.Write(meta)
		b.WriteString("---\n\n")
	}

	lines := []string{"# " + l.DisplayTitle(), ""}
	for _, s := range l.Sections {
		if len(s.Questions) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("## %d. %s", s.Number, s.Title), "")
		for _, q := range s.Questions {
			lines = append(lines, "- "+q.Text)
		}
		lines = append(lines, "")
	}
	b.WriteString(strings.Join(lines, "\n"))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}
