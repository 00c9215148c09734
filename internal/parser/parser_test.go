package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gensec-template/gensec-template/internal/lab"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	doc, err := Load(f)
	require.NoError(t, err)
	return doc
}

func loadString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := Load(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseIndex_Cards(t *testing.T) {
	doc := loadFixture(t, "index.html")

	labs := ParseIndex(doc, "https://codelabs.cs.pdx.edu/cs475/")

	want := []*lab.Lab{
		{
			Number:          "01.3",
			ID:              "G01.3_ProgramModel",
			Title:           "Programmatic Model Access",
			URL:             "https://codelabs.cs.pdx.edu/labs/G01.3_ProgramModel/index.html",
			Sections:        []*lab.Section{},
			DurationMinutes: 45,
			Description:     "Access models through their Python SDKs.",
		},
		{
			Number:          "01.1",
			ID:              "G01.1_Setup",
			Title:           "Course Setup",
			URL:             "https://codelabs.cs.pdx.edu/labs/G01.1_Setup/index.html",
			Sections:        []*lab.Section{},
			DurationMinutes: 30,
			Description:     "Set up the course VM.",
		},
		{
			Number:      "02.2",
			ID:          "G02.2_RAG",
			Title:       "Retrieval Augmented Generation",
			URL:         "https://codelabs.cs.pdx.edu/labs/G02.2_RAG/index.html",
			Sections:    []*lab.Section{},
			Description: "Build a RAG pipeline.",
		},
	}

	if diff := cmp.Diff(want, labs); diff != "" {
		t.Errorf("ParseIndex() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIndex_LinkFallback(t *testing.T) {
	doc := loadFixture(t, "index_links.html")

	labs := ParseIndex(doc, "https://example.com/cs475/")
	require.Len(t, labs, 2)

	assert.Equal(t, "03.1", labs[0].Number)
	assert.Equal(t, "Agents", labs[0].Title)
	assert.Equal(t, "https://example.com/labs/G03.1_Agents/index.html", labs[0].URL)

	assert.Equal(t, "03.2", labs[1].Number, "number should come from the lab ID")
	assert.Equal(t, "Tools for Agents", labs[1].Title)
}

func TestParseIndex_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantLabs int
	}{
		{
			name:     "empty page",
			html:     `<html><body><p>Nothing here</p></body></html>`,
			wantLabs: 0,
		},
		{
			name:     "card without labs path",
			html:     `<a class="codelab-card" href="/docs/x.html"><h4>01.1: X</h4></a>`,
			wantLabs: 0,
		},
		{
			name:     "card without title",
			html:     `<a class="codelab-card" href="/labs/G04.1_Untitled/index.html"></a>`,
			wantLabs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labs := ParseIndex(loadString(t, tt.html), "https://example.com/")
			assert.Len(t, labs, tt.wantLabs)
		})
	}
}

func TestParseLabPage(t *testing.T) {
	tests := []struct {
		name       string
		fixture    string
		wantTitle  string
		wantTitles []string
		wantCount  int
	}{
		{
			name:       "codelab steps",
			fixture:    "lab.html",
			wantTitle:  "01.3: Programmatic Model Access",
			wantTitles: []string{"Setup", "Models via APIs", "Cleanup"},
			wantCount:  3,
		},
		{
			name:       "sidebar steps",
			fixture:    "lab_legacy.html",
			wantTitle:  "Legacy Lab",
			wantTitles: []string{"Overview", "Exercise"},
			wantCount:  2,
		},
		{
			name:      "drawer anchors",
			fixture:   "lab_drawer.html",
			wantTitle: "Drawer Lab",
			wantCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadFixture(t, tt.fixture)

			page := ParseLabPage(doc)
			assert.Equal(t, tt.wantTitle, page.Title)
			assert.Equal(t, tt.wantTitles, page.SectionTitles)
			assert.Equal(t, tt.wantCount, SectionCount(doc))
		})
	}
}

func TestSectionCount_Unknown(t *testing.T) {
	assert.Equal(t, 0, SectionCount(loadString(t, `<html><body><p>plain</p></body></html>`)))
}

func TestParseSection_CodelabSteps(t *testing.T) {
	doc := loadFixture(t, "lab.html")

	setup := ParseSection(doc, 1, ModeBold)
	assert.Equal(t, 1, setup.Number)
	assert.Equal(t, "Setup", setup.Title)
	assert.Equal(t, "#0", setup.URLHash)
	assert.Equal(t, []lab.Question{
		{Text: "Take a screenshot of the activated environment", RequiresScreenshot: true},
	}, setup.Questions)

	models := ParseSection(doc, 2, ModeBold)
	assert.Equal(t, "Models via APIs", models.Title)
	assert.Equal(t, "#1", models.URLHash)
	assert.Equal(t, []lab.Question{
		{Text: "Explain the difference between a chat and a completion model"},
		{Text: "Include your OdinId in the prompt", RequiresOdinID: true},
		{Text: "Submit your notebook"},
	}, models.Questions)

	cleanup := ParseSection(doc, 3, ModeBold)
	assert.Equal(t, "Cleanup", cleanup.Title)
	assert.Empty(t, cleanup.Questions)
}

func TestParseSection_Heuristic(t *testing.T) {
	doc := loadFixture(t, "lab.html")

	cleanup := ParseSection(doc, 3, ModeHeuristic)
	assert.Equal(t, []lab.Question{
		{Text: "Describe what you would change in this lab"},
	}, cleanup.Questions)

	// Bold items still win when a section has them.
	setup := ParseSection(doc, 1, ModeHeuristic)
	require.Len(t, setup.Questions, 1)
	assert.Equal(t, "Take a screenshot of the activated environment", setup.Questions[0].Text)
}

func TestParseSection_Fallback(t *testing.T) {
	doc := loadFixture(t, "lab_legacy.html")

	first := ParseSection(doc, 1, ModeBold)
	assert.Equal(t, "Overview", first.Title)
	assert.Equal(t, []lab.Question{{Text: "Answer the warm-up question"}}, first.Questions)

	second := ParseSection(doc, 2, ModeBold)
	assert.Equal(t, "", second.Title)
	assert.Empty(t, second.Questions)
	assert.Equal(t, "#1", second.URLHash)
}

func TestIsDeliverable(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Take a screenshot of the output", true},
		{"Explain why the attack works", true},
		{"  LIST the files you changed", true},
		{"The output should include a screenshot of the browser", true},
		{"Install the package and take a screenshot", false},
		{"Navigate to the console", false},
		{"Create a new notebook", false},
		{"Wait for the build to finish", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeliverable(tt.text))
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeBold, m)

	m, err = ParseMode("Heuristic")
	require.NoError(t, err)
	assert.Equal(t, ModeHeuristic, m)

	_, err = ParseMode("fuzzy")
	assert.Error(t, err)
}
