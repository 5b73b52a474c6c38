// Package telemetry wires OpenTelemetry span export for webping cycles and
// probes.
//
// The probing code always creates spans through the global tracer provider.
// Until [Setup] installs an exporting provider those spans are no-ops.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName identifies webping in exported spans.
const ServiceName = "webping"

// ErrNilWriter is returned by Setup when no destination is given.
var ErrNilWriter = errors.New("telemetry: nil writer")

// Setup installs a global tracer provider that writes spans to w as JSON.
//
// The returned shutdown function flushes pending spans and must be called
// before exit.
func Setup(w io.Writer, version string) (shutdown func(context.Context) error, err error) {
	if w == nil {
		return nil, ErrNilWriter
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
