package parcoursup

import (
	"context"
	"fmt"
	"parcoursupstats/internal/formation"
	"parcoursupstats/lib/htmlutil"
	"parcoursupstats/lib/textutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CommuneMatchThreshold is the Jaro-Winkler similarity above which a commune label
// is considered to match a requested name.
const CommuneMatchThreshold = 0.9

// EnumerateFilters submits the unfiltered search and returns every commune the form
// offers, in document order.
func (c *Client) EnumerateFilters(ctx context.Context) ([]formation.FilterValue, error) {
	ctx, span := tracer.Start(ctx, "client:EnumerateFilters")
	defer span.End()

	if c.SessionID == "" {
		c.tel.ReportBroken(report_client_enumerate, ErrNoSession)
		return nil, ErrNoSession
	}

	endpoint := fmt.Sprintf("recherche;jsessionid=%s?ACTION=1", c.SessionID)
	res, err := c.postForm(ctx, endpoint, typeFormationForm())
	if err != nil {
		c.tel.ReportBroken(report_client_enumerate, fmt.Errorf("fetch: %w", err))
		return nil, err
	}
	doc, err := parseDocument(res)
	if err != nil {
		c.tel.ReportBroken(report_client_enumerate, fmt.Errorf("parse: %w", err))
		return nil, err
	}

	filters := ParseFilters(doc)
	c.tel.ReportCount("client.filters", int64(len(filters)))
	return filters, nil
}

// ParseFilters reads the options of the commune select, skipping the "unset" option.
func ParseFilters(doc *goquery.Document) []formation.FilterValue {
	var filters []formation.FilterValue
	doc.Find(`select[name="b_cm_cod"] option`).Each(func(_ int, option *goquery.Selection) {
		value, ok := option.Attr("value")
		if !ok {
			value = option.Text()
		}
		value = strings.TrimSpace(value)
		if value == unset {
			return
		}
		filters = append(filters, formation.FilterValue{
			Code:  value,
			Label: htmlutil.CollapseWhitespace(option.Text()),
		})
	})
	return filters
}

// SelectFilters keeps the filters whose label matches one of names, every filter is
// kept when names is empty.
func SelectFilters(filters []formation.FilterValue, names []string) []formation.FilterValue {
	if len(names) == 0 {
		return filters
	}
	var selected []formation.FilterValue
	for _, filter := range filters {
		if textutil.MatchName(filter.Label, names, CommuneMatchThreshold) {
			selected = append(selected, filter)
		}
	}
	return selected
}
