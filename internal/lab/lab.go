package lab

import (
	"fmt"
	"strings"
)

// Question is a deliverable bullet from a lab section
type Question struct {
	Text               string `json:"text"`
	RequiresScreenshot bool   `json:"requires_screenshot"`
	RequiresOdinID     bool   `json:"requires_odinid"`
}

// NewQuestion creates a Question from raw text, flagging screenshot and OdinId requirements
func NewQuestion(text string) Question {
	lower := strings.ToLower(text)
	return Question{
		Text:               strings.TrimSpace(text),
		RequiresScreenshot: strings.Contains(lower, "screenshot"),
		RequiresOdinID:     strings.Contains(lower, "odinid") || strings.Contains(lower, "odin id"),
	}
}

// Section is one numbered step of a lab
type Section struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	URLHash   string     `json:"url_hash"`
}

// NewSection creates an empty section whose anchor follows the site's zero-based step hash
func NewSection(number int, title string) *Section {
	return &Section{
		Number:    number,
		Title:     title,
		Questions: []Question{},
		URLHash:   fmt.Sprintf("#%d", number-1),
	}
}

// QuestionCount returns the number of questions in the section
func (s *Section) QuestionCount() int {
	return len(s.Questions)
}

// ScreenshotCount returns how many questions ask for a screenshot
func (s *Section) ScreenshotCount() int {
	n := 0
	for _, q := range s.Questions {
		if q.RequiresScreenshot {
			n++
		}
	}
	return n
}

// OdinIDCount returns how many questions ask for the student's OdinId
func (s *Section) OdinIDCount() int {
	n := 0
	for _, q := range s.Questions {
		if q.RequiresOdinID {
			n++
		}
	}
	return n
}

// AddQuestion appends a question built from raw text and returns it
func (s *Section) AddQuestion(text string) Question {
	q := NewQuestion(text)
	s.Questions = append(s.Questions, q)
	return q
}

// Lab is a single lab assignment
type Lab struct {
	Number          string     `json:"number"`
	ID              string     `json:"lab_id"`
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	Sections        []*Section `json:"sections"`
	DurationMinutes int        `json:"duration_minutes,omitempty"` // 0 when the site does not say
	Description     string     `json:"description,omitempty"`
}

// DisplayTitle returns "<number>: <title>", the heading used by every template
func (l *Lab) DisplayTitle() string {
	return fmt.Sprintf("%s: %s", l.Number, l.Title)
}

// HasSections reports whether the lab page has been scraped
func (l *Lab) HasSections() bool {
	return len(l.Sections) > 0
}

// SectionCount returns the number of sections
func (l *Lab) SectionCount() int {
	return len(l.Sections)
}

// TotalQuestions returns the number of questions across all sections
func (l *Lab) TotalQuestions() int {
	n := 0
	for _, s := range l.Sections {
		n += s.QuestionCount()
	}
	return n
}

// TotalScreenshots returns the number of questions that need a screenshot
func (l *Lab) TotalScreenshots() int {
	n := 0
	for _, s := range l.Sections {
		n += s.ScreenshotCount()
	}
	return n
}

// TotalOdinIDs returns the number of questions that need the student's OdinId
func (l *Lab) TotalOdinIDs() int {
	n := 0
	for _, s := range l.Sections {
		n += s.OdinIDCount()
	}
	return n
}

// Section returns the section with the given number, or nil
func (l *Lab) Section(number int) *Section {
	for _, s := range l.Sections {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// SectionURL returns the deep link to a section
func (l *Lab) SectionURL(s *Section) string {
	if s.URLHash == "" {
		return l.URL
	}
	return l.URL + s.URLHash
}

// Summary returns a copy of the lab without its sections, as listed on the index page
func (l *Lab) Summary() *Lab {
	c := *l
	c.Sections = nil
	return &c
}
