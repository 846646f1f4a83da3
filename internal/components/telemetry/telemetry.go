package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics.
// Components receive an API instead of calling slog directly so tests can assert on
// what was reported.
type API interface {
	// ReportBroken reports a component that has broken in a way that aborts the
	// operation it was part of.
	//
	// The `id` names the component, not the specific line that failed, formatted as
	// `<struct or intf>.<method>` in lowercase with dashes, ex. `client.crawl-filter`.
	// Wrap the error with fmt.Errorf or add params if more detail is needed.
	ReportBroken(id string, params ...any)

	// ReportWarning reports a failure that was tolerated, the caller carries on with
	// the next item.
	//
	// For what value to provide as `id` refer to ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug reports some debug information that is hidden unless verbose
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current count of a specific event at the current time, these counts should
	// not be summed but interpreted as points of data over time.
	ReportCount(id string, count int64)
}

// ScopedAPI is a telemetry API that attaches a namespace for a given API, kind of like creating a
// "sub" logger using things like log.New(), in which you can define the prefix for the logs.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
