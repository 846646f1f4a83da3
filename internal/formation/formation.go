// Package formation holds the records produced by the parcoursup scraper and their
// CSV representation.
package formation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// FilterValue is one commune offered by the search form, Code is the value posted
// back as `b_cm_cod`.
type FilterValue struct {
	Code  string
	Label string
}

// Figures are the statistics of the "Chiffres" panel of a detail page.
// A value the portal declined to report is -1.
type Figures struct {
	Classes          int
	Seats            int
	SeatsPriorYear   int
	Vows             int
	VowsPriorYear    int
	ScholarshipQuota string
}

// Formation is an admission program of a school.
type Formation struct {
	School  string
	City    string
	Academy string
	// Link is the detail page link as found on the listing, relative to the portal base.
	Link    string
	Program string

	Figures Figures
	// Complete is set once the figures were read from the detail page, Figures is
	// left zero otherwise.
	Complete bool
}

var ErrNoLink = errors.New("formation has no detail link")

// AbsoluteURL resolves link against base. Resolving an already absolute link returns
// it unchanged, so the base is never prefixed twice.
func AbsoluteURL(base *url.URL, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", ErrNoLink
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link '%s': %w", link, err)
	}
	if ref.IsAbs() {
		return link, nil
	}
	return base.ResolveReference(ref).String(), nil
}

type dedupeKey struct {
	link    string
	school  string
	city    string
	program string
}

// Dedupe drops the formations already seen under another commune filter, keeping the
// first occurrence and the original order.
func Dedupe(formations []Formation) []Formation {
	seen := make(map[dedupeKey]struct{}, len(formations))
	out := make([]Formation, 0, len(formations))
	for _, f := range formations {
		key := dedupeKey{link: f.Link}
		if f.Link == "" {
			key = dedupeKey{school: f.School, city: f.City, program: f.Program}
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
