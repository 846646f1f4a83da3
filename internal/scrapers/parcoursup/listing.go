package parcoursup

import (
	"context"
	"errors"
	"fmt"
	"parcoursupstats/internal/components/assert"
	"parcoursupstats/internal/formation"
	"parcoursupstats/lib/htmlutil"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrUnexpectedRow = errors.New("parcoursup: unexpected result row")
	ErrMissingLink   = errors.New("parcoursup: result row has no detail link")
)

// ListingPageParser reads the paginated result listing.
type ListingPageParser interface {
	// LastPage returns the number of the last result page, pages are numbered from 1.
	LastPage(doc *goquery.Document) int
	// Formations returns the partial formations of one result page, only the
	// identity fields are set.
	Formations(doc *goquery.Document) ([]formation.Formation, error)
}

// RowLayout is one of the two shapes a result row comes in.
type RowLayout int

const (
	// RowNarrow rows have 7 or 8 cells, the program name spans 2 of them.
	RowNarrow RowLayout = iota
	// RowWide rows have 9 cells, the program name spans 3 of them.
	RowWide
)

func (l RowLayout) String() string {
	switch l {
	case RowNarrow:
		return "narrow"
	case RowWide:
		return "wide"
	}
	return fmt.Sprintf("RowLayout(%d)", int(l))
}

type rowCells struct {
	school  int
	city    int
	academy int
	program []int
}

var rowLayouts = map[RowLayout]rowCells{
	RowNarrow: {school: 1, city: 4, academy: 6, program: []int{2, 3}},
	RowWide:   {school: 1, city: 5, academy: 7, program: []int{2, 3, 4}},
}

// LayoutOf returns the layout of a row with `cells` cells.
func LayoutOf(cells int) (RowLayout, error) {
	switch {
	case cells == 9:
		return RowWide, nil
	case cells == 7 || cells == 8:
		return RowNarrow, nil
	}
	return 0, fmt.Errorf("%w: %d cells", ErrUnexpectedRow, cells)
}

// ListingParser parses the result listing markup of the portal.
type ListingParser struct{}

func (ListingParser) LastPage(doc *goquery.Document) int {
	last := 1
	doc.Find("ul.pagination a").Each(func(_ int, a *goquery.Selection) {
		page, err := strconv.Atoi(strings.TrimSpace(a.Text()))
		if err != nil {
			// "previous" and "next" anchors
			return
		}
		last = max(last, page)
	})
	return last
}

func (ListingParser) Formations(doc *goquery.Document) ([]formation.Formation, error) {
	var out []formation.Formation
	rows := doc.Find("tr.recherche-resultat")
	for i := 0; i < rows.Length(); i++ {
		f, err := parseResultRow(rows.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func parseResultRow(row *goquery.Selection) (formation.Formation, error) {
	tds := row.Find("td")
	layout, err := LayoutOf(tds.Length())
	if err != nil {
		return formation.Formation{}, err
	}
	cells := rowLayouts[layout]

	school := tds.Eq(cells.school).Find("strong")
	if school.Length() == 0 {
		return formation.Formation{}, fmt.Errorf("%w: no school name in cell %d", ErrUnexpectedRow, cells.school)
	}

	programParts := make([]string, len(cells.program))
	for i, idx := range cells.program {
		programParts[i] = tds.Eq(idx).Text()
	}

	link, ok := row.Find("a.bouton-simple").Attr("href")
	if !ok {
		return formation.Formation{}, ErrMissingLink
	}

	return formation.Formation{
		School:  htmlutil.StripLineBreaks(htmlutil.SelectionText(school)),
		City:    htmlutil.CollapseWhitespace(tds.Eq(cells.city).Text()),
		Academy: htmlutil.CollapseWhitespace(tds.Eq(cells.academy).Text()),
		Link:    strings.TrimSpace(link),
		Program: htmlutil.CollapseWhitespace(strings.Join(programParts, " ")),
	}, nil
}

// CrawlFilter scopes the search of the session to one commune then reads every
// result page.
func (c *Client) CrawlFilter(ctx context.Context, code string) ([]formation.Formation, error) {
	assert.NotEmptyStr(code, "commune code")

	ctx, span := tracer.Start(ctx, "client:CrawlFilter")
	defer span.End()

	// both responses are ignored, the requests only move the search state of the session
	_, err := c.postForm(ctx, "recherche?ACTION=1", communeForm(code))
	if err != nil {
		c.tel.ReportBroken(report_client_crawl_filter, fmt.Errorf("select commune: %w", err), code)
		return nil, err
	}
	_, err = c.get(ctx, "recherche?ACTION=2")
	if err != nil {
		c.tel.ReportBroken(report_client_crawl_filter, fmt.Errorf("confirm results: %w", err), code)
		return nil, err
	}

	return c.CrawlListingPages(ctx)
}

func listingEndpoint(page int) string {
	return fmt.Sprintf("recherche?ACTION=0&page=%d", page)
}

// CrawlListingPages reads every page of the current search results.
func (c *Client) CrawlListingPages(ctx context.Context) ([]formation.Formation, error) {
	res, err := c.get(ctx, listingEndpoint(0))
	if err != nil {
		c.tel.ReportBroken(report_client_crawl_listing, fmt.Errorf("fetch: %w", err), 0)
		return nil, err
	}
	doc, err := parseDocument(res)
	if err != nil {
		c.tel.ReportBroken(report_client_crawl_listing, fmt.Errorf("parse: %w", err), 0)
		return nil, err
	}
	lastPage := c.Listing.LastPage(doc)
	c.tel.ReportDebug("listing pages", lastPage)

	var out []formation.Formation
	for page := 1; page <= lastPage; page++ {
		res, err := c.get(ctx, listingEndpoint(page))
		if err != nil {
			c.tel.ReportBroken(report_client_crawl_listing, fmt.Errorf("fetch: %w", err), page)
			return nil, err
		}
		doc, err := parseDocument(res)
		if err != nil {
			c.tel.ReportBroken(report_client_crawl_listing, fmt.Errorf("parse: %w", err), page)
			return nil, err
		}
		formations, err := c.Listing.Formations(doc)
		if err != nil {
			c.tel.ReportBroken(report_client_crawl_listing, err, page)
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		out = append(out, formations...)
	}
	return out, nil
}
