package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	tel := NewScopedAPI("parcoursup", rec)

	err := errors.New("boom")
	tel.ReportBroken("client.bootstrap", err)
	tel.ReportWarning("scraper.extract-all", "Lycée du Parc")
	tel.ReportCount("scraper.crawl-all", 12)

	broken := rec.Reports(ReportKindBroken, "")
	require.Len(t, broken, 1)
	require.Equal(t, "parcoursup: client.bootstrap", broken[0].ID)
	require.Equal(t, []any{err}, broken[0].Params)

	require.Len(t, rec.Reports(ReportKindWarning, "extract-all"), 1)
	require.Empty(t, rec.Reports(ReportKindWarning, "crawl-all"))

	counts := rec.Reports(ReportKindCount, "scraper.crawl-all")
	require.Len(t, counts, 1)
	require.Equal(t, int64(12), counts[0].Count)
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	rec := NewRecorder()
	client := resty.New().SetBaseURL(srv.URL)
	InstrumentResty(client, rec)

	_, err := client.R().Get("recherche")
	require.NoError(t, err)
	require.Len(t, rec.Reports(ReportKindDebug, report_resty_request), 1)
	require.Len(t, rec.Reports(ReportKindDebug, report_resty_response), 1)
	require.Empty(t, rec.Reports(ReportKindWarning, ""))

	_, err = client.R().Get("missing")
	require.NoError(t, err)
	warnings := rec.Reports(ReportKindWarning, report_resty_response)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Params, "404 Not Found")
}
