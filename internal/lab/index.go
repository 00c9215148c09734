package lab

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidRef is returned when a lab URL does not point at a lab
	ErrInvalidRef = errors.New("invalid lab identifier")
	// ErrNotFound is returned when no lab in the index matches a reference
	ErrNotFound = errors.New("lab not found")
)

var labURLPattern = regexp.MustCompile(`/labs/([^/]+)/`)

// Index lists every lab published on the course page
type Index struct {
	Labs        []*Lab    `json:"labs"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewIndex creates an index stamped with the current time
func NewIndex(labs []*Lab) *Index {
	if labs == nil {
		labs = []*Lab{}
	}
	return &Index{
		Labs:        labs,
		LastUpdated: time.Now().UTC(),
	}
}

// LabCount returns the number of labs in the index
func (idx *Index) LabCount() int {
	return len(idx.Labs)
}

// TotalSections returns the number of sections across all labs
func (idx *Index) TotalSections() int {
	n := 0
	for _, l := range idx.Labs {
		n += l.SectionCount()
	}
	return n
}

// TotalQuestions returns the number of questions across all labs
func (idx *Index) TotalQuestions() int {
	n := 0
	for _, l := range idx.Labs {
		n += l.TotalQuestions()
	}
	return n
}

// ByNumber returns the lab with the given number (e.g. "01.3"), or nil
func (idx *Index) ByNumber(number string) *Lab {
	for _, l := range idx.Labs {
		if l.Number == number {
			return l
		}
	}
	return nil
}

// ByID returns the lab with the given ID (e.g. "G01.3_ProgramModel"), or nil
func (idx *Index) ByID(id string) *Lab {
	for _, l := range idx.Labs {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Find looks a lab up by ID first, then by number
func (idx *Index) Find(ref string) *Lab {
	if l := idx.ByID(ref); l != nil {
		return l
	}
	return idx.ByNumber(ref)
}

// Week returns the labs numbered "<week>.x", ordered by number
func (idx *Index) Week(week string) []*Lab {
	prefix := NormalizeWeek(week) + "."
	labs := make([]*Lab, 0)
	for _, l := range idx.Labs {
		if strings.HasPrefix(l.Number, prefix) {
			labs = append(labs, l)
		}
	}
	sort.SliceStable(labs, func(i, j int) bool {
		return labs[i].Number < labs[j].Number
	})
	return labs
}

// ParseRef turns a user supplied identifier into a lab number or ID.
// URLs are reduced to the lab ID found in their /labs/<id>/ path.
func ParseRef(identifier string) (string, error) {
	ref := strings.TrimSpace(identifier)
	if ref == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidRef)
	}

	if strings.HasPrefix(ref, "http") {
		m := labURLPattern.FindStringSubmatch(ref)
		if m == nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidRef, identifier)
		}
		return m[1], nil
	}

	return ref, nil
}

// NormalizeWeek zero-pads single digit weeks so "1" matches labs numbered "01.x"
func NormalizeWeek(week string) string {
	week = strings.TrimSpace(week)
	if n, err := strconv.Atoi(week); err == nil && n >= 0 && n < 10 {
		return fmt.Sprintf("%02d", n)
	}
	return week
}
