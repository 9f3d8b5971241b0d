// Package main is the entry point for the workspace sync server.
//
// The server keeps durable workspace, pinned item and favorite state
// synchronized with a volatile set of open documents, and exposes the
// state over REST and WebSocket to rendering clients.
//
// The server provides:
//   - REST API for workspace, item and folder operations
//   - Workspace switching with durable open-tab snapshots
//   - Bookmark import (Netscape export format)
//   - WebSocket change-notification streaming
//   - Prometheus metrics, rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode, shared Redis store
//	./server -port 8000 -redis localhost:6379
//
//	# Development mode (colored logs, debug level, in-memory store)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
