package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gensec-template/gensec-template/internal/lab"
)

// Format is an output document format
type Format string

const (
	FormatDocx     Format = "docx"
	FormatMarkdown Format = "md"
)

// ParseFormat parses a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "docx":
		return FormatDocx, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid format %q (must be 'docx' or 'md')", s)
	}
}

// Ext returns the file extension, without the dot
func (f Format) Ext() string {
	return string(f)
}

func (f Format) String() string {
	return string(f)
}

var unsafeTitleChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// FileName returns the default file name for a lab, e.g. "01.3_Programmatic_Model_Access.docx"
func FileName(l *lab.Lab, f Format) string {
	title := unsafeTitleChars.ReplaceAllString(l.Title, "")
	title = strings.ReplaceAll(title, " ", "_")
	return fmt.Sprintf("%s_%s.%s", l.Number, title, f.Ext())
}
