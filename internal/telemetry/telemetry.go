// Package telemetry wires the mapper's diagnostic counters to OpenTelemetry.
// The counters are a development aid: every body dispatch increments a
// per-kind counter, and block processing is counted by block type.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/dgw-tools/coursemapper"

// Counters hold the mapper's diagnostic instruments. The zero value is not
// usable; call NewCounters.
type Counters struct {
	dispatches metric.Int64Counter
	blocks     metric.Int64Counter
	records    metric.Int64Counter
	skips      metric.Int64Counter
}

// NewCounters creates the instruments on the global meter provider. With no
// SDK installed the global provider is a no-op, so callers never need to
// guard counter updates.
func NewCounters() (*Counters, error) {
	meter := otel.Meter(meterName)
	c := &Counters{}
	var err error
	if c.dispatches, err = meter.Int64Counter("coursemapper.body.dispatches",
		metric.WithDescription("body rules dispatched, by node kind")); err != nil {
		return nil, err
	}
	if c.blocks, err = meter.Int64Counter("coursemapper.blocks.processed",
		metric.WithDescription("requirement blocks processed, by block type")); err != nil {
		return nil, err
	}
	if c.records, err = meter.Int64Counter("coursemapper.requirements.emitted",
		metric.WithDescription("requirement records emitted")); err != nil {
		return nil, err
	}
	if c.skips, err = meter.Int64Counter("coursemapper.skips",
		metric.WithDescription("skipped constructs, by reason")); err != nil {
		return nil, err
	}
	return c, nil
}

// Dispatch counts one body dispatch for the given node kind.
func (c *Counters) Dispatch(ctx context.Context, kind string) {
	if c == nil {
		return
	}
	c.dispatches.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Block counts one processed block.
func (c *Counters) Block(ctx context.Context, blockType string) {
	if c == nil {
		return
	}
	c.blocks.Add(ctx, 1, metric.WithAttributes(attribute.String("block_type", blockType)))
}

// Record counts one emitted requirement record.
func (c *Counters) Record(ctx context.Context) {
	if c == nil {
		return
	}
	c.records.Add(ctx, 1)
}

// Skip counts one skipped construct.
func (c *Counters) Skip(ctx context.Context, reason string) {
	if c == nil {
		return
	}
	c.skips.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Init installs a metrics SDK that dumps readings to stderr when debug is
// set. Returns a shutdown func that flushes the final reading.
func Init(debug bool, version string) (func(context.Context) error, error) {
	if !debug {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("stdout metric exporter: %w", err)
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("coursemapper"),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp,
			sdkmetric.WithInterval(30*time.Second))),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}
