package bounce

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/bouncemarker/internal/bounce"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
