// Package middleware provides the HTTP middleware chain for the audio
// converter: request logging and Prometheus instrumentation.
package middleware
