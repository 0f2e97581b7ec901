/*
Package monitoring provides Prometheus metrics for the simulator server.

# Overview

Metrics live in a private registry owned by a Metrics value. Three feeds
update them:

- Middleware records HTTP request counts and latency per route
- EventSink counts simulation events and tracks live processes, channels
  and detected deadlock cycles
- the WebSocket hub and tick driver call the Record/Inc helpers directly

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s := sim.New(sim.WithSink(monitoring.NewEventSink(metrics)))
*/
package monitoring
