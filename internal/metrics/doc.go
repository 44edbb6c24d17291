// Package metrics defines the Prometheus collectors for the audio
// converter service.
//
// Collectors are registered via promauto at package load and exported as
// variables; the /metrics endpoint is served separately from the main
// listener so scrapes bypass the session check.
package metrics
