package parcoursup

import (
	"context"
	"errors"
	"fmt"
	"parcoursupstats/internal/formation"
	"parcoursupstats/lib/htmlutil"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DetailPageParser reads the statistics of a formation detail page.
type DetailPageParser interface {
	// Figures returns the figures of the page, found is false when the page has no
	// figures panel, in which case the figures are zero.
	Figures(doc *goquery.Document) (figures formation.Figures, found bool, err error)
}

const (
	figuresPanelTitle = "Chiffres"
	// notAvailable is what the portal writes in place of a number it does not report.
	notAvailable = "non disponible"
	// NotAvailableValue is stored for a number the portal does not report.
	NotAvailableValue = -1
)

// FigureError is a figures row whose value does not fit its label.
type FigureError struct {
	Label string
	Value string
	Err   error
}

func (e *FigureError) Error() string {
	return fmt.Sprintf("figure '%s' with value '%s': %s", e.Label, e.Value, e.Err)
}

func (e *FigureError) Unwrap() error {
	return e.Err
}

var errMissingValue = errors.New("missing value cell")

type numberField struct {
	label string
	field func(*formation.Figures) *int
}

var numberFields = []numberField{
	{
		label: "Nombre de places offertes sur la plateforme :",
		field: func(f *formation.Figures) *int { return &f.Seats },
	},
	{
		label: "Nombre de classes :",
		field: func(f *formation.Figures) *int { return &f.Classes },
	},
	{
		label: "Nombre de places l'année précédente",
		field: func(f *formation.Figures) *int { return &f.SeatsPriorYear },
	},
	{
		label: "Nombre de voeux cette année",
		field: func(f *formation.Figures) *int { return &f.Vows },
	},
	{
		label: "Nombre de voeux l'année précédente",
		field: func(f *formation.Figures) *int { return &f.VowsPriorYear },
	},
}

const scholarshipQuotaLabel = "Quota de candidats boursier"

var labelReplacer = strings.NewReplacer(
	"’", "'",
	"œ", "oe",
)

func normalizeLabel(label string) string {
	return htmlutil.CollapseWhitespace(labelReplacer.Replace(label))
}

// parseCount parses a figure, "1 200" is read as 1200.
func parseCount(value string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(value, " ", ""))
}

// DetailParser parses the detail page markup of the portal.
type DetailParser struct{}

func (DetailParser) Figures(doc *goquery.Document) (formation.Figures, bool, error) {
	var figures formation.Figures
	found := false

	var err error
	doc.Find(".blocElement").EachWithBreak(func(_ int, bloc *goquery.Selection) bool {
		if htmlutil.CollapseWhitespace(htmlutil.SelectionText(bloc.Find(".nomElement"))) != figuresPanelTitle {
			return true
		}
		found = true

		bloc.Find(".contenu tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			err = applyFigureRow(&figures, row)
			return err == nil
		})
		return err == nil
	})
	if err != nil {
		return formation.Figures{}, found, err
	}
	return figures, found, nil
}

func applyFigureRow(figures *formation.Figures, row *goquery.Selection) error {
	label := normalizeLabel(row.Find("th").Text())

	cells := row.Find("td")
	hasValue := cells.Length() > 0
	values := make([]string, cells.Length())
	cells.Each(func(i int, td *goquery.Selection) {
		values[i] = td.Text()
	})
	value := htmlutil.CollapseWhitespace(strings.Join(values, " "))
	if strings.Contains(value, notAvailable) {
		value = strconv.Itoa(NotAvailableValue)
	}

	for _, nf := range numberFields {
		if !strings.Contains(label, nf.label) {
			continue
		}
		if !hasValue {
			return &FigureError{Label: label, Err: errMissingValue}
		}
		n, err := parseCount(value)
		if err != nil {
			return &FigureError{Label: label, Value: value, Err: err}
		}
		*nf.field(figures) = n
	}

	if strings.Contains(label, scholarshipQuotaLabel) {
		figures.ScholarshipQuota = value
	}
	return nil
}

// ExtractDetails reads the detail page of f and stores its figures in f. A page
// without figures panel leaves f incomplete without error. Malformed figures are
// returned as a *FigureError and leave f untouched. A missing or unparsable link is
// returned as formation.ErrNoLink, reporting it is left to the caller.
func (c *Client) ExtractDetails(ctx context.Context, f *formation.Formation) error {
	ctx, span := tracer.Start(ctx, "client:ExtractDetails")
	defer span.End()

	// resolved the same way the CSV writes it
	link, err := formation.AbsoluteURL(c.BaseUrl, f.Link)
	if errors.Is(err, formation.ErrNoLink) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", formation.ErrNoLink, err)
	}

	res, err := c.get(ctx, link)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		// left to the caller, a missing detail page does not stop the crawl
		return err
	}
	if err != nil {
		c.tel.ReportBroken(report_client_extract_details, fmt.Errorf("fetch: %w", err), f.Link)
		return err
	}
	doc, err := parseDocument(res)
	if err != nil {
		c.tel.ReportBroken(report_client_extract_details, fmt.Errorf("parse: %w", err), f.Link)
		return err
	}

	figures, found, err := c.Detail.Figures(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Link, err)
	}
	if !found {
		c.tel.ReportDebug("no figures panel", f.Link)
		return nil
	}
	f.Figures = figures
	f.Complete = true
	return nil
}
