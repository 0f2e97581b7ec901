/*
Package tracing provides lightweight request tracing for the HTTP API.

# Overview

Every request gets a span with a ULID-based trace id ("trace_...") and span
id ("span_..."). Callers can continue an existing trace by sending the
X-Trace-ID and X-Span-ID headers; the server echoes the ids it used. Finished
spans are logged by a background collector, at debug level on success and
at error level when the handler recorded an error.

# Usage

	tracer := tracing.New("ipcsim", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	// inside a handler
	traceID := tracing.TraceIDFrom(c.Request.Context())
*/
package tracing
