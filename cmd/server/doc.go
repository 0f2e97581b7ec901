// Package main is the entry point for the IPC simulation server.
//
// The server provides:
//   - REST API for simulator commands under /api
//   - WebSocket stream of simulator events on /ws
//   - Prometheus metrics on /metrics
//   - Persistent event log with gzip NDJSON export
//   - Optional auto-stepping driver
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 4000
//
//	# Development mode (console logs, debug level), stepping every 500ms
//	./server -dev -tick 500ms
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
