package generator

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/gensec-template/gensec-template/internal/lab"
)

var generatedAt = time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)

func sampleLab() *lab.Lab {
	setup := lab.NewSection(1, "Setup")
	setup.AddQuestion("Take a screenshot of the activated environment")
	empty := lab.NewSection(2, "Reading")
	models := lab.NewSection(3, "Models via APIs")
	models.AddQuestion("Include your OdinId in the prompt")
	models.AddQuestion("Compare <chat> & completion models")

	return &lab.Lab{
		Number:          "01.3",
		ID:              "G01.3_ProgramModel",
		Title:           "Programmatic Model Access",
		URL:             "https://codelabs.cs.pdx.edu/labs/G01.3_ProgramModel/index.html",
		Sections:        []*lab.Section{setup, empty, models},
		DurationMinutes: 45,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"docx", FormatDocx, false},
		{"DOCX", FormatDocx, false},
		{"", FormatDocx, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title string
		f     Format
		want  string
	}{
		{"Programmatic Model Access", FormatDocx, "01.3_Programmatic_Model_Access.docx"},
		{"RAG: Retrieval (Part 1)", FormatMarkdown, "01.3_RAG_Retrieval_Part_1.md"},
		{"Self-Check & Review", FormatMarkdown, "01.3_Self-Check__Review.md"},
		{"Über Prompts", FormatDocx, "01.3_Über_Prompts.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(&lab.Lab{Number: "01.3", Title: tt.title}, tt.f))
		})
	}
}

func TestWriteMarkdown_Exact(t *testing.T) {
	got, err := Markdown(sampleLab(), Options{})
	require.NoError(t, err)

	want := "# 01.3: Programmatic Model Access\n" +
		"\n" +
		"## 1. Setup\n" +
		"\n" +
		"- Take a screenshot of the activated environment\n" +
		"\n" +
		"## 3. Models via APIs\n" +
		"\n" +
		"- Include your OdinId in the prompt\n" +
		"- Compare <chat> & completion models\n"
	assert.Equal(t, want, got)
}

func TestWriteMarkdown_NoQuestions(t *testing.T) {
	got, err := Markdown(&lab.Lab{Number: "02.1", Title: "Intro"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "# 02.1: Intro\n", got)
}

// outline walks parsed Markdown and returns its headings and list items
func outline(t *testing.T, src []byte) (headings []string, items []string) {
	t.Helper()
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			headings = append(headings, strings.Repeat("#", node.Level)+" "+string(node.Text(src)))
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			items = append(items, string(node.Text(src)))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return headings, items
}

func TestWriteMarkdown_Structure(t *testing.T) {
	l := sampleLab()
	l.Sections[0].AddQuestion("Explain *why* the `venv` is needed")

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, l, Options{}))

	headings, items := outline(t, buf.Bytes())
	assert.Equal(t, []string{
		"# 01.3: Programmatic Model Access",
		"## 1. Setup",
		"## 3. Models via APIs",
	}, headings)
	assert.Len(t, items, l.TotalQuestions())
}

func TestWriteMarkdown_FrontMatter(t *testing.T) {
	got, err := Markdown(sampleLab(), Options{FrontMatter: true, GeneratedAt: generatedAt})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(got, "---\n"))
	end := strings.Index(got[4:], "---\n")
	require.Greater(t, end, 0)
	header, body := got[4:4+end], got[4+end+4:]

	var meta frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(header), &meta))
	assert.Equal(t, frontMatter{
		LabID:           "G01.3_ProgramModel",
		Number:          "01.3",
		Title:           "Programmatic Model Access",
		URL:             "https://codelabs.cs.pdx.edu/labs/G01.3_ProgramModel/index.html",
		DurationMinutes: 45,
		Sections:        3,
		Questions:       3,
		Screenshots:     1,
		OdinIDs:         1,
		Generated:       generatedAt,
	}, meta)

	assert.True(t, strings.HasPrefix(body, "\n# 01.3: Programmatic Model Access\n"))
}

// readDocx returns the parts of a .docx package by name
func readDocx(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close() // nolint:errcheck
		parts[f.Name] = string(body)
	}
	return parts
}

type docxParagraph struct {
	style string
	text  string
}

// paragraphs returns the styled, non-empty paragraphs of word/document.xml in order
func paragraphs(t *testing.T, doc string) []docxParagraph {
	t.Helper()
	var (
		out  []docxParagraph
		cur  *docxParagraph
		inT  bool
		text strings.Builder
	)

	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				cur = &docxParagraph{}
				text.Reset()
			case "pStyle":
				if cur != nil {
					for _, a := range el.Attr {
						if a.Name.Local == "val" {
							cur.style = a.Value
						}
					}
				}
			case "t":
				inT = true
			}
		case xml.CharData:
			if inT {
				text.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inT = false
			case "p":
				if cur != nil && text.Len() > 0 {
					cur.text = text.String()
					out = append(out, *cur)
				}
				cur = nil
			}
		}
	}
	return out
}

func TestWriteDocx_Package(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocx(&buf, sampleLab(), Options{GeneratedAt: generatedAt}))

	parts := readDocx(t, buf.Bytes())
	for _, name := range []string{
		"[Content_Types].xml",
		"word/document.xml",
		"word/styles.xml",
	} {
		assert.Contains(t, parts, name)
	}

	styles := parts["word/styles.xml"]
	assert.Contains(t, styles, `w:styleId="Heading1"`)
	assert.Contains(t, styles, `w:styleId="Heading2"`)
}

func TestWriteDocx_Document(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocx(&buf, sampleLab(), Options{GeneratedAt: generatedAt}))
	doc := readDocx(t, buf.Bytes())["word/document.xml"]

	assert.Equal(t, []docxParagraph{
		{"Heading1", "01.3: Programmatic Model Access"},
		{"Heading2", "1. Setup"},
		{styleListBullet, "Take a screenshot of the activated environment"},
		{"Heading2", "3. Models via APIs"},
		{styleListBullet, "Include your OdinId in the prompt"},
		{styleListBullet, "Compare <chat> & completion models"},
	}, paragraphs(t, doc))
	assert.NotContains(t, doc, "Table of Contents")
}

func TestWriteDocx_TOC(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocx(&buf, sampleLab(), Options{TOC: true, GeneratedAt: generatedAt}))
	doc := readDocx(t, buf.Bytes())["word/document.xml"]

	ps := paragraphs(t, doc)
	require.GreaterOrEqual(t, len(ps), 3)
	assert.Equal(t, docxParagraph{"Heading1", "Table of Contents"}, ps[0])
	assert.Equal(t, tocPlaceholder, ps[1].text)
	assert.Equal(t, docxParagraph{"Heading1", "01.3: Programmatic Model Access"}, ps[2])

	brk := strings.Index(doc, `w:type="page"`)
	require.GreaterOrEqual(t, brk, 0)
	assert.Less(t, brk, strings.Index(doc, "01.3: Programmatic Model Access"))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	l := sampleLab()

	tests := []struct {
		f     Format
		magic string
	}{
		{FormatDocx, "PK"},
		{FormatMarkdown, "# 01.3"},
	}

	for _, tt := range tests {
		t.Run(string(tt.f), func(t *testing.T) {
			path := filepath.Join(dir, "nested", "out", FileName(l, tt.f))

			got, err := Generate(l, tt.f, path, Options{})
			require.NoError(t, err)
			assert.Equal(t, path, got)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), tt.magic))
		})
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(io.Discard, sampleLab(), Format("pdf"), Options{}))
}
