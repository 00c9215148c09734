package parser

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gensec-template/gensec-template/internal/lab"
)

var (
	labHrefPattern     = regexp.MustCompile(`/labs/G\d+`)
	labIDPattern       = regexp.MustCompile(`/labs/([^/]+)/`)
	titleNumberPattern = regexp.MustCompile(`^(\d+\.\d+)[:\s-]*(.+)$`)
	idNumberPattern    = regexp.MustCompile(`^G(\d+\.\d+)_`)
	durationPattern    = regexp.MustCompile(`(?i)(\d+)\s*min`)
	sectionNumPrefix   = regexp.MustCompile(`^\d+\.\s*(.+)$`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Page is the lab-level information found on a lab page
type Page struct {
	Title         string
	SectionTitles []string
}

// Load parses an HTML document
func Load(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// ParseIndex extracts the labs listed on the course page. Labs carry no sections.
func ParseIndex(doc *goquery.Document, baseURL string) []*lab.Lab {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = &url.URL{}
	}

	cards := doc.Find("a.codelab-card")
	if cards.Length() == 0 {
		cards = doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return labHrefPattern.MatchString(s.AttrOr("href", ""))
		})
	}

	labs := make([]*lab.Lab, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		if l := parseCard(card, base); l != nil {
			labs = append(labs, l)
		}
	})

	return labs
}

// parseCard builds a lab from one index card, or nil when the card is not a lab link
func parseCard(card *goquery.Selection, base *url.URL) *lab.Lab {
	href := card.AttrOr("href", "")
	if href == "" || !strings.Contains(href, "/labs/") {
		return nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}

	var id string
	if m := labIDPattern.FindStringSubmatch(href); m != nil {
		id = m[1]
	}

	titleText := text(first(card, "h4", "h3", "h2.title", "div.title", "h2"))

	var number, title string
	if m := titleNumberPattern.FindStringSubmatch(titleText); m != nil {
		number = m[1]
		title = strings.TrimSpace(m[2])
	} else {
		if m := idNumberPattern.FindStringSubmatch(id); m != nil {
			number = m[1]
		}
		title = titleText
	}

	return &lab.Lab{
		Number:          number,
		ID:              id,
		Title:           title,
		URL:             base.ResolveReference(ref).String(),
		Sections:        []*lab.Section{},
		DurationMinutes: parseDuration(card),
		Description:     text(first(card, "p", "div.description")),
	}
}

// parseDuration reads "NN min" from the card's duration span, or from any span mentioning minutes
func parseDuration(card *goquery.Selection) int {
	span := card.Find("span.duration").First()
	if span.Length() == 0 {
		span = card.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(strings.ToLower(text(s)), "min")
		}).First()
	}

	m := durationPattern.FindStringSubmatch(text(span))
	if m == nil {
		return 0
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return minutes
}

// ParseLabPage extracts the lab title and the navigation titles of its sections
func ParseLabPage(doc *goquery.Document) Page {
	var page Page

	if title, ok := doc.Find("google-codelab").First().Attr("title"); ok && strings.TrimSpace(title) != "" {
		page.Title = strings.TrimSpace(title)
	} else {
		page.Title = text(first(doc.Selection, "title", "h1"))
	}

	doc.Find("google-codelab-step").Each(func(_ int, step *goquery.Selection) {
		if label := strings.TrimSpace(step.AttrOr("label", "")); label != "" {
			page.SectionTitles = append(page.SectionTitles, label)
		}
	})
	if len(page.SectionTitles) > 0 {
		return page
	}

	navSteps(doc).Each(func(_ int, step *goquery.Selection) {
		if label := step.Find("span.label").First(); label.Length() > 0 {
			page.SectionTitles = append(page.SectionTitles, text(label))
			return
		}
		if t := text(step); t != "" {
			page.SectionTitles = append(page.SectionTitles, t)
		}
	})

	return page
}

// SectionCount determines how many sections a lab page has, or 0 when it cannot tell
func SectionCount(doc *goquery.Document) int {
	if n := doc.Find("google-codelab-step").Length(); n > 0 {
		return n
	}

	if n := navSteps(doc).Length(); n > 0 {
		return n
	}

	nav := first(doc.Selection, "div#drawer", "nav")
	if nav.Length() > 0 {
		return nav.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return strings.HasPrefix(a.AttrOr("href", ""), "#")
		}).Length()
	}

	return 0
}

// ParseSection extracts section number n (1-based) and its deliverable questions
func ParseSection(doc *goquery.Document, n int, mode Mode) *lab.Section {
	steps := doc.Find("google-codelab-step")

	var content *goquery.Selection
	var title string

	switch {
	case n >= 1 && n <= steps.Length():
		content = steps.Eq(n - 1)
		title = strings.TrimSpace(content.AttrOr("label", ""))
	case n > 1:
		// Without step elements the page body is a single section; later sections
		// only exist in the navigation and take their titles from there.
		return lab.NewSection(n, "")
	default:
		content = first(doc.Selection, "div.instructions", "div.step")
		if content.Length() == 0 {
			content = doc.Selection
		}
		title = text(first(content, "h1", "h2"))
		if m := sectionNumPrefix.FindStringSubmatch(title); m != nil {
			title = m[1]
		}
	}

	section := lab.NewSection(n, title)
	section.Questions = ExtractQuestions(content, mode)
	return section
}

// navSteps returns the sidebar step entries of older page layouts
func navSteps(doc *goquery.Document) *goquery.Selection {
	if steps := doc.Find("li.step"); steps.Length() > 0 {
		return steps
	}
	return doc.Find("a.step")
}

// first returns the first match of the first selector that matches anything under sel
func first(sel *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, s := range selectors {
		if found := sel.Find(s).First(); found.Length() > 0 {
			return found
		}
	}
	return sel.Slice(0, 0)
}

// text returns the selection's text with runs of whitespace collapsed
func text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(sel.Text(), " "))
}
