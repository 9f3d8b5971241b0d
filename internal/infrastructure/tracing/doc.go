/*
Package tracing provides lightweight request tracing.

# Overview

This package implements minimal tracing to follow a request through the
server and correlate its log lines. It borrows OpenTelemetry concepts
without taking on an exporter dependency.

# Features

- Trace context propagation via HTTP headers
- Span creation with parent-child relationships
- Automatic trace ID generation
- Gin middleware for automatic instrumentation
- Structured logging integration
- Low overhead with buffered span collection

# Usage

	// Create tracer
	tracer := tracing.New("sync-engine", logger)

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	span.SetTag("key", "value")

# Trace Format

Traces use standard HTTP headers for propagation:
- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation
*/
package tracing
