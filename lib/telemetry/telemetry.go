package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry holds the providers installed by Setup, both are nil when no exporter
// endpoint was configured.
type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

func (t Telemetry) Enabled() bool {
	return t.TracerProvider != nil || t.MeterProvider != nil
}

// Shutdown flushes and stops the providers.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var errlist []error
	if t.TracerProvider != nil {
		errlist = append(errlist, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errlist = append(errlist, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errlist...)
}

type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) configured() bool {
	return c.GrpcEndpoint != "" || c.HttpEndpoint != ""
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

// Setup installs the global tracer and meter providers for every exporter that has
// an endpoint. Without any endpoint the otel no-op providers stay in place.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	var tel Telemetry
	if !config.Otlp.Traces.configured() && !config.Otlp.Metrics.configured() {
		return tel, nil
	}

	r, err := newResource(serviceName)
	if err != nil {
		return tel, err
	}

	if config.Otlp.Traces.configured() {
		tracerProvider, err := newTraceProvider(ctx, r, config)
		if err != nil {
			return tel, err
		}
		otel.SetTracerProvider(tracerProvider)
		tel.TracerProvider = tracerProvider
	}

	if config.Otlp.Metrics.configured() {
		meterProvider, err := newMetricProvider(ctx, r, config)
		if err != nil {
			return tel, errors.Join(err, tel.Shutdown(ctx))
		}
		otel.SetMeterProvider(meterProvider)
		tel.MeterProvider = meterProvider
	}

	return tel, nil
}
