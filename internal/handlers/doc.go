// Package handlers implements the HTTP surface of the audio converter:
// the operator login, the upload+convert endpoint, downloads of produced
// files, the conversion history API and the health check.
//
// A conversion is one synchronous round-trip: the upload is streamed to
// a temporary file under uploads/, converted into converted/, and the
// response carries the final metadata. The temporary input is removed on
// every exit path.
package handlers
