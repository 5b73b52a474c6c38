// Package server provides the optional HTTP control surface for webping.
//
// The surface is a handful of JSON endpoints under "/api" that read the
// service state and request pause, resume and stop transitions. It is only
// started when a control address is configured.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
