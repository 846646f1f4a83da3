package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	ReportKindBroken ReportKind = iota
	ReportKindWarning
	ReportKindDebug
	ReportKindCount
)

type Report struct {
	Kind   ReportKind
	ID     string
	Params []any
	Count  int64
}

// Recorder is an API that keeps every report in memory, it is meant for tests.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: ReportKindBroken, ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: ReportKindWarning, ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: ReportKindDebug, ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Kind: ReportKindCount, ID: id, Count: count})
}

// Reports returns a copy of every report of the given kind whose id ends with
// `suffix`, an empty suffix matches everything.
func (r *Recorder) Reports(kind ReportKind, suffix string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind != kind || !strings.HasSuffix(report.ID, suffix) {
			continue
		}
		out = append(out, report)
	}
	return out
}
