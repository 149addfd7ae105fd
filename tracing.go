// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the instrumentation name used for the default tracer.
	TracerName = "github.com/xmidt-org/refresher"

	// CycleSpanName is the name of the span created for each scheduled cycle.
	CycleSpanName = "refresher.cycle"
)

// cycleTracer wraps a trace.Tracer with the attributes an Updater puts on its spans.
type cycleTracer struct {
	tracer trace.Tracer
	name   string
}

func newCycleTracer(t trace.Tracer, name string) cycleTracer {
	if t == nil {
		t = noop.NewTracerProvider().Tracer(TracerName)
	}

	return cycleTracer{
		tracer: t,
		name:   name,
	}
}

func (ct cycleTracer) start(ctx context.Context, id string) (context.Context, trace.Span) {
	return ct.tracer.Start(
		ctx,
		CycleSpanName,
		trace.WithAttributes(
			attribute.String("refresher.name", ct.name),
			attribute.String("refresher.cycle", id),
		),
	)
}

func (ct cycleTracer) end(span trace.Span, r CycleResult) {
	span.SetAttributes(attribute.String("refresher.outcome", r.Outcome.String()))
	switch r.Outcome {
	case OutcomeFailed:
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Err.Error())

	case OutcomeSucceeded:
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
