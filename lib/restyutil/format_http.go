package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

// formatHeaders renders headers as "Key: Value" lines sorted by key.
func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var lines []string
	for _, k := range keys {
		for _, v := range headers[k] {
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	// resty hands out a nil body for requests without one
	if body == nil {
		return ""
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	return string(contents)
}

// 1: request method
// 2: request url
// 3: request headers
// 4: request body
// 5: response status line
// 6: response headers
// 7: response body
const exchangeTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s

%s

%s`

// FormatExchange renders the request of res and res itself in a human readable form.
func FormatExchange(res *resty.Response) string {
	var requestHeaders string
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}

	return fmt.Sprintf(
		exchangeTemplate,
		res.Request.Method, res.Request.URL,
		requestHeaders,
		formatRequestBody(res.Request.RawRequest),
		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}
