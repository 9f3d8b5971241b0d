// Package logging provides structured logging for the sync server
// using uber/zap.
//
// Two modes cover the deployment split:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Domain packages log through this wrapper only. The engine logs
// switch phases and reconciler decisions at Debug, best-effort
// persistence failures at Warn, and aborted switches at Error.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Warn("Store write failed", zap.String("key", key), zap.Error(err))
package logging
