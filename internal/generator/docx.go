package generator

import (
	"fmt"
	"io"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/gensec-template/gensec-template/internal/lab"
)

// Paragraph style of question bullets in the default document template
const styleListBullet = "List Bullet"

const tocPlaceholder = "[Table of Contents - Update in Word/Google Docs to auto-generate]"

// addTOC writes a table of contents page: a heading, the placeholder Word
// replaces when the table is generated, then a page break
func addTOC(doc *docx.RootDoc) error {
	if _, err := doc.AddHeading("Table of Contents", 1); err != nil {
		return err
	}
	doc.AddParagraph("").AddText(tocPlaceholder).Italic(true)
	doc.AddPageBreak()
	return nil
}

func buildDocx(l *lab.Lab, opts Options) (*docx.RootDoc, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	if opts.TOC {
		if err := addTOC(doc); err != nil {
			return nil, fmt.Errorf("adding table of contents: %w", err)
		}
	}

	if _, err := doc.AddHeading(l.DisplayTitle(), 1); err != nil {
		return nil, fmt.Errorf("adding title: %w", err)
	}

	for _, s := range l.Sections {
		if len(s.Questions) == 0 {
			continue
		}
		if _, err := doc.AddHeading(fmt.Sprintf("%d. %s", s.Number, s.Title), 2); err != nil {
			return nil, fmt.Errorf("adding section %d: %w", s.Number, err)
		}
		for _, q := range s.Questions {
			doc.AddParagraph(q.Text).Style(styleListBullet)
		}
		doc.AddParagraph("")
	}

	return doc, nil
}

// WriteDocx writes the Word template for a lab as a .docx package
func WriteDocx(w io.Writer, l *lab.Lab, opts Options) error {
	doc, err := buildDocx(l, opts)
	if err != nil {
		return err
	}
	if err := doc.Write(w); err != nil {
		return fmt.Errorf("writing docx: %w", err)
	}
	return nil
}
