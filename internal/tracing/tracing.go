// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package tracing builds the daemon's OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/xmidt-org/refresher/internal/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Provider wraps a trace.TracerProvider with a shutdown hook.
type Provider struct {
	trace.TracerProvider
	shutdown func(context.Context) error
}

// Shutdown flushes and stops span export. It is a no-op when tracing is disabled.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}

	return p.shutdown(ctx)
}

// New creates a Provider. When tracing is disabled, the returned Provider
// hands out no-op tracers.
func New(ctx context.Context, cfg config.Tracing, serviceName, version string, logger *zap.Logger) (*Provider, error) {
	logger = logger.Named("tracing")
	if !cfg.Enabled {
		logger.Debug("tracing disabled")
		return &Provider{
			TracerProvider: noop.NewTracerProvider(),
		}, nil
	}

	if len(cfg.Endpoint) == 0 {
		return nil, fmt.Errorf("tracing enabled but endpoint not configured")
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}

	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(initCtx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		initCtx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	logger.Info("tracing initialized", zap.String("endpoint", cfg.Endpoint), zap.Bool("insecure", cfg.Insecure))
	return &Provider{
		TracerProvider: tp,
		shutdown:       tp.Shutdown,
	}, nil
}
