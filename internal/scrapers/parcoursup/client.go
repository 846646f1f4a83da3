// client.go contains the session handling of the candidate portal, every request the
// scraper makes goes through it.

package parcoursup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
	"parcoursupstats/internal/components/assert"
	"parcoursupstats/internal/components/telemetry"
	"parcoursupstats/lib/restyutil"
	libtelemetry "parcoursupstats/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	report_client_bootstrap       = "client.bootstrap"
	report_client_enumerate       = "client.enumerate-filters"
	report_client_crawl_filter    = "client.crawl-filter"
	report_client_crawl_listing   = "client.crawl-listing"
	report_client_extract_details = "client.extract-details"
)

const (
	DefaultBaseUrl   = "https://dossierappel.parcoursup.fr/Candidat/"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/39.0.2171.95 Safari/537.36"
	DefaultTimeout   = 30 * time.Second

	// SessionCookie is the cookie the portal keys its search state on.
	SessionCookie = "JSESSIONID"
)

var ErrNoSession = errors.New("parcoursup: no session cookie after warm-up")

// StatusError is returned when the portal answers with a status >= 400.
type StatusError struct {
	Method string
	Url    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Url, e.Status)
}

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl, it must point to the "Candidat/" directory.
	BaseUrl   string
	UserAgent string
	// Timeout of a single request, DefaultTimeout if unset.
	Timeout time.Duration
	// RequestsPerSecond paces requests, 0 disables pacing.
	RequestsPerSecond float64
	// BrowserTLS makes the TLS handshake look like a desktop browser, for when the
	// portal sits behind a bot challenge.
	BrowserTLS bool
	// Dump, if set, receives a copy of every exchange with the portal.
	Dump restyutil.Output
}

// Client is one session on the portal. The portal keeps the search criteria on the
// server side of the session so requests must not be interleaved.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	// SessionID is the JSESSIONID captured by Bootstrap.
	SessionID string

	Listing ListingPageParser
	Detail  DetailPageParser

	tel telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "telemetry")
	tel = telemetry.NewScopedAPI("parcoursup", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if !strings.HasSuffix(opts.BaseUrl, "/") {
		opts.BaseUrl += "/"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if !baseUrl.IsAbs() {
		return nil, fmt.Errorf("base url '%s' is not absolute", opts.BaseUrl)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.BrowserTLS {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeaders(map[string]string{
		"User-Agent": opts.UserAgent,
		"Referer":    baseUrl.JoinPath("recherche").String(),
		"Origin":     fmt.Sprintf("%s://%s", baseUrl.Scheme, baseUrl.Host),
	})
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	if opts.RequestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	if opts.Dump != nil {
		restyutil.DumpExchanges(httpClient, opts.Dump)
	}
	libtelemetry.InstrumentResty(httpClient, "parcoursupstats/scrapers/parcoursup/http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    httpClient,
		Listing: ListingParser{},
		Detail:  DetailParser{},
		tel:     tel,
	}, nil
}

func checkStatus(res *resty.Response) error {
	if !res.IsError() {
		return nil
	}
	return &StatusError{
		Method: res.Request.Method,
		Url:    res.Request.URL,
		Status: res.StatusCode(),
	}
}

func (c *Client) get(ctx context.Context, endpoint string) (*resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return nil, err
	}
	return res, checkStatus(res)
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(endpoint)
	if err != nil {
		return nil, err
	}
	return res, checkStatus(res)
}

func parseDocument(res *resty.Response) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// Bootstrap opens the session: it requests the search page and keeps the session
// cookie the portal hands out.
func (c *Client) Bootstrap(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Bootstrap")
	defer span.End()

	_, err := c.get(ctx, "recherche")
	if err != nil {
		c.tel.ReportBroken(report_client_bootstrap, fmt.Errorf("warm-up request: %w", err))
		return fmt.Errorf("parcoursup: bootstrap: %w", err)
	}

	sessionID := sessionFromCookies(c.Http.GetClient().Jar.Cookies(c.BaseUrl))
	if sessionID == "" {
		c.tel.ReportBroken(report_client_bootstrap, ErrNoSession, c.BaseUrl.String())
		return ErrNoSession
	}

	c.SessionID = sessionID
	c.tel.ReportDebug("session opened", sessionID)
	return nil
}

func sessionFromCookies(cookies []*http.Cookie) string {
	for _, cookie := range cookies {
		if cookie.Name == SessionCookie {
			return cookie.Value
		}
	}
	return ""
}
