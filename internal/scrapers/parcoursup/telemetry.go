package parcoursup

import (
	"go.opentelemetry.io/otel"
)

const instrumentationName = "parcoursupstats/scrapers/parcoursup"

var tracer = otel.Tracer(instrumentationName)
