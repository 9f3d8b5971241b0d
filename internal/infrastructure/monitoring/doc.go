/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the sync
engine, tracking HTTP requests, document lifecycle, workspace switches,
imports, and store writes.

# Features

- HTTP request metrics (latency, throughput)
- Document registry metrics (open count, total opened)
- Item conversion metrics by transition
- Workspace switch metrics (started, completed, rejected)
- Bookmark import metrics
- Persistent store write metrics
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.SetDocumentsOpen(5)
	metrics.RecordConversion("pinned", "favorite")

# Metrics Endpoint

Each collector owns its registry; expose it with promhttp:

	handler := promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})
	router.GET("/metrics", gin.WrapH(handler))
*/
package monitoring
