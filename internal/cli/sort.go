package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gensec-template/gensec-template/internal/lab"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByNumber SortOrder = "number"
	SortByTitle  SortOrder = "title"
	SortByID     SortOrder = "id"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortByNumber, SortByTitle, SortByID:
		return o, nil
	case "":
		return SortByNumber, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'number', 'title' or 'id')", s)
	}
}

// sortLabs sorts labs in place based on the specified sort order
func sortLabs(labs []*lab.Lab, order SortOrder) {
	switch order {
	case SortByTitle:
		sort.SliceStable(labs, func(i, j int) bool {
			ti, tj := strings.ToLower(labs[i].Title), strings.ToLower(labs[j].Title)
			if ti != tj {
				return ti < tj
			}
			return compareByNumber(labs[i], labs[j])
		})
	case SortByID:
		sort.SliceStable(labs, func(i, j int) bool {
			return labs[i].ID < labs[j].ID
		})
	default:
		sort.SliceStable(labs, func(i, j int) bool {
			return compareByNumber(labs[i], labs[j])
		})
	}
}

// compareByNumber orders "week.lab" numbers numerically, so 2.10 follows 2.9.
// Numbers that don't parse sort after those that do.
func compareByNumber(i, j *lab.Lab) bool {
	wi, li, okI := splitNumber(i.Number)
	wj, lj, okJ := splitNumber(j.Number)

	switch {
	case okI && okJ:
		if wi != wj {
			return wi < wj
		}
		if li != lj {
			return li < lj
		}
		return i.Number < j.Number
	case okI:
		return true
	case okJ:
		return false
	default:
		return i.Number < j.Number
	}
}

func splitNumber(number string) (week, n int, ok bool) {
	w, l, found := strings.Cut(number, ".")
	if !found {
		return 0, 0, false
	}
	week, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, false
	}
	n, err = strconv.Atoi(l)
	if err != nil {
		return 0, 0, false
	}
	return week, n, true
}
