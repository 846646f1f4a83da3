package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type instrumentResty struct {
	tel       API
	idcounter *uint64
}

// InstrumentResty reports every request and response of the client at debug level.
// Transport failures are left to the caller to report since it knows which component
// broke.
func InstrumentResty(client *resty.Client, tel API) {
	var idcounter uint64
	i := instrumentResty{tel: tel, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        uint64
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()

	id := atomic.AddUint64(i.idcounter, 1)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	reqCtx, ok := res.Request.Context().Value(reqCtxKey).(reqCtx)
	if !ok {
		i.tel.ReportDebug(report_resty_response, res.Request.Method, res.Request.URL, res.Status())
		return nil
	}

	i.tel.ReportDebug(
		report_resty_response,
		reqCtx.id,
		time.Since(reqCtx.startTime).String(),
		res.Status(),
	)
	if res.IsError() {
		i.tel.ReportWarning(report_resty_response, res.Request.Method, res.Request.URL, res.Status())
	}
	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	// the request context is missing when an earlier OnBeforeRequest hook rejected it
	reqCtx, ok := req.Context().Value(reqCtxKey).(reqCtx)
	if !ok {
		i.tel.ReportDebug(report_resty_response, err, req.Method, req.URL)
		return
	}

	i.tel.ReportDebug(
		report_resty_response,
		err,
		reqCtx.id,
		req.Method,
		req.URL,
		time.Since(reqCtx.startTime).String(),
	)
}
