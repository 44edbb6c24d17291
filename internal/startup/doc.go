// Package startup loads and validates configuration for the audio
// converter service.
//
// Configuration comes from the environment (optionally seeded from a
// .env file); every value is logged at startup so a misconfigured
// deployment is visible in the first screen of output. The package also
// owns build metadata and the structured startup/shutdown log lines.
package startup
