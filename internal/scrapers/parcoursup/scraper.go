// scraper.go chains the client operations into a full crawl of the portal.

package parcoursup

import (
	"context"
	"errors"
	"fmt"
	"parcoursupstats/internal/components/assert"
	"parcoursupstats/internal/components/telemetry"
	"parcoursupstats/internal/formation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_scraper_filters     = "scraper.filters"
	report_scraper_crawl_all   = "scraper.crawl-all"
	report_scraper_extract_all = "scraper.extract-all"
)

// ProgressFunc is called after every unit of work of a phase.
type ProgressFunc func(done, total int)

type ScraperOptions struct {
	// Communes restricts the crawl to the communes matching these names, see
	// SelectFilters.
	Communes []string
	// Dedupe drops formations listed under more than one commune before their
	// details are fetched.
	Dedupe bool

	CrawlProgress   ProgressFunc
	ExtractProgress ProgressFunc
}

// Scraper runs the phases of a crawl in order: filters, listings, details.
type Scraper struct {
	client *Client
	tel    telemetry.API
	opts   ScraperOptions

	scraped    metric.Int64Counter
	incomplete metric.Int64Counter
}

func NewScraper(client *Client, tel telemetry.API, opts ScraperOptions) Scraper {
	assert.NotNil(client, "client")
	assert.NotNil(tel, "telemetry")

	tel = telemetry.NewScopedAPI("parcoursup", tel)

	meter := otel.Meter(instrumentationName)
	scraped, err := meter.Int64Counter(
		"parcoursup.formations.scraped",
		metric.WithDescription("formations found on the result listings"),
	)
	if err != nil {
		tel.ReportWarning("scraper.metrics", err)
	}
	incomplete, err := meter.Int64Counter(
		"parcoursup.formations.incomplete",
		metric.WithDescription("formations whose figures could not be read"),
	)
	if err != nil {
		tel.ReportWarning("scraper.metrics", err)
	}

	return Scraper{
		client:     client,
		tel:        tel,
		opts:       opts,
		scraped:    scraped,
		incomplete: incomplete,
	}
}

func (s Scraper) progress(fn ProgressFunc, done, total int) {
	if fn != nil {
		fn(done, total)
	}
}

// Filters opens the session if needed and returns the communes to crawl.
func (s Scraper) Filters(ctx context.Context) ([]formation.FilterValue, error) {
	ctx, span := tracer.Start(ctx, "scraper:Filters")
	defer span.End()

	if s.client.SessionID == "" {
		err := s.client.Bootstrap(ctx)
		if err != nil {
			span.SetStatus(codes.Error, "bootstrap")
			return nil, err
		}
	}

	filters, err := s.client.EnumerateFilters(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "enumerate filters")
		return nil, err
	}

	selected := SelectFilters(filters, s.opts.Communes)
	if len(s.opts.Communes) > 0 && len(selected) == 0 {
		s.tel.ReportWarning(
			report_scraper_filters,
			fmt.Errorf("no commune matches %v", s.opts.Communes),
		)
	}
	span.SetAttributes(
		attribute.Int("filters.total", len(filters)),
		attribute.Int("filters.selected", len(selected)),
	)
	return selected, nil
}

// CrawlAll reads the result listing of every filter, one after the other since the
// session holds a single search at a time.
func (s Scraper) CrawlAll(ctx context.Context, filters []formation.FilterValue) ([]formation.Formation, error) {
	ctx, span := tracer.Start(ctx, "scraper:CrawlAll")
	defer span.End()

	var out []formation.Formation
	s.progress(s.opts.CrawlProgress, 0, len(filters))
	for i, filter := range filters {
		formations, err := s.client.CrawlFilter(ctx, filter.Code)
		if err != nil {
			s.tel.ReportBroken(report_scraper_crawl_all, err, filter.Code, filter.Label)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("commune %s (%s): %w", filter.Label, filter.Code, err)
		}
		s.tel.ReportDebug("crawled commune", filter.Label, len(formations))
		out = append(out, formations...)
		s.progress(s.opts.CrawlProgress, i+1, len(filters))
	}

	if s.opts.Dedupe {
		deduped := formation.Dedupe(out)
		s.tel.ReportDebug("dropped duplicate formations", len(out)-len(deduped))
		out = deduped
	}

	if s.scraped != nil {
		s.scraped.Add(ctx, int64(len(out)))
	}
	s.tel.ReportCount(report_scraper_crawl_all, int64(len(out)))
	return out, nil
}

// tolerated reports whether a detail extraction error only concerns its formation.
func tolerated(err error) bool {
	var figureErr *FigureError
	var statusErr *StatusError
	return errors.As(err, &figureErr) ||
		errors.As(err, &statusErr) ||
		errors.Is(err, formation.ErrNoLink)
}

// ExtractAll fills in the figures of every formation in place. A formation whose
// detail page is malformed is reported and left incomplete, any other error stops
// the extraction.
func (s Scraper) ExtractAll(ctx context.Context, formations []formation.Formation) error {
	ctx, span := tracer.Start(ctx, "scraper:ExtractAll")
	defer span.End()

	failed := 0
	s.progress(s.opts.ExtractProgress, 0, len(formations))
	for i := range formations {
		err := s.client.ExtractDetails(ctx, &formations[i])
		if err != nil && !tolerated(err) {
			s.tel.ReportBroken(report_scraper_extract_all, err, formations[i].Link)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if err != nil {
			failed++
			s.tel.ReportWarning(report_scraper_extract_all, err, formations[i].School, formations[i].Program)
		}
		s.progress(s.opts.ExtractProgress, i+1, len(formations))
	}

	incomplete := 0
	for _, f := range formations {
		if !f.Complete {
			incomplete++
		}
	}
	if s.incomplete != nil {
		s.incomplete.Add(ctx, int64(incomplete))
	}
	span.SetAttributes(
		attribute.Int("formations.failed", failed),
		attribute.Int("formations.incomplete", incomplete),
	)
	if incomplete > 0 {
		s.tel.ReportCount("scraper.incomplete", int64(incomplete))
	}
	return nil
}

// Scrape runs every phase and returns the formations in the order they were listed.
func (s Scraper) Scrape(ctx context.Context) ([]formation.Formation, error) {
	filters, err := s.Filters(ctx)
	if err != nil {
		return nil, err
	}
	formations, err := s.CrawlAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	err = s.ExtractAll(ctx, formations)
	if err != nil {
		return nil, err
	}
	return formations, nil
}
