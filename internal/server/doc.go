// Package server exposes a form store over HTTP and WebSocket.
//
// All store access runs on a single Loop goroutine: handlers hand work to
// the loop with Loop.Do and wait for it, so the store, its scope and every
// binding are only ever touched from one goroutine.
//
// Routes:
//
//	GET  /state          current state as JSON
//	GET  /fields/{name}  {"field": ..., "value": ...}
//	PUT  /fields/{name}  body {"value": ...}, responds with the new state
//	GET  /ws/{name}      WebSocket streaming the field on connect and on change
//	GET  /metrics        Prometheus metrics (path configurable)
package server
