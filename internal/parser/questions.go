package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gensec-template/gensec-template/internal/lab"
)

// Mode selects how deliverables are recognised inside a section
type Mode string

const (
	// ModeBold keeps only list items that carry bold text, the site's deliverable marker
	ModeBold Mode = "bold"
	// ModeHeuristic falls back to keyword classification when a section has no bold items
	ModeHeuristic Mode = "heuristic"
)

// ParseMode validates a mode name. An empty name means ModeBold.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBold:
		return ModeBold, nil
	case ModeHeuristic:
		return ModeHeuristic, nil
	default:
		return "", fmt.Errorf("invalid extraction mode: %s (must be 'bold' or 'heuristic')", s)
	}
}

// Action verbs that open a deliverable bullet
var deliverableStarters = []string{
	"take a screenshot",
	"submit",
	"demonstrate",
	"explain",
	"show",
	"include",
	"provide",
	"document",
	"answer",
	"describe",
	"compare",
	"analyze",
	"list",
	"identify",
	"discuss",
	"report",
	"capture",
}

// Phrases of step-by-step instructions, which are never deliverables
var exclusionIndicators = []string{
	"edit the file",
	"run the command",
	"install",
	"navigate to",
	"click on",
	"open the",
	"create a",
	"copy the",
	"paste the",
	"download",
	"execute the",
	"type the",
	"enter the",
	"set the",
	"configure",
}

// IsDeliverable classifies a plain bullet as something the student must hand in
func IsDeliverable(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}

	for _, ex := range exclusionIndicators {
		if strings.Contains(lower, ex) {
			return false
		}
	}

	if strings.Contains(lower, "screenshot") {
		return true
	}
	for _, starter := range deliverableStarters {
		if strings.HasPrefix(lower, starter) {
			return true
		}
	}
	return false
}

// ExtractQuestions returns the deliverables found in the list items under sel.
// Items inside pre or code blocks are ignored.
func ExtractQuestions(sel *goquery.Selection, mode Mode) []lab.Question {
	items := sel.Find("li").FilterFunction(func(_ int, li *goquery.Selection) bool {
		return li.ParentsFiltered("pre, code").Length() == 0
	})

	questions := make([]lab.Question, 0)
	items.Each(func(_ int, li *goquery.Selection) {
		if t := boldText(li); t != "" {
			questions = append(questions, lab.NewQuestion(t))
		}
	})

	if len(questions) > 0 || mode != ModeHeuristic {
		return questions
	}

	items.Each(func(_ int, li *goquery.Selection) {
		t := ownText(li)
		if IsDeliverable(t) {
			questions = append(questions, lab.NewQuestion(t))
		}
	})
	return questions
}

// boldText returns the text of the first strong (else b) element belonging to li itself,
// skipping bold text of nested list items so each item is reported once
func boldText(li *goquery.Selection) string {
	for _, tag := range []string{"strong", "b"} {
		var found string
		li.Find(tag).EachWithBreak(func(_ int, b *goquery.Selection) bool {
			if !b.Closest("li").IsSelection(li) {
				return true
			}
			if t := text(b); t != "" {
				found = t
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// ownText returns the text of li without the text of nested lists
func ownText(li *goquery.Selection) string {
	c := li.Clone()
	c.Find("ul, ol").Remove()
	return text(c)
}
