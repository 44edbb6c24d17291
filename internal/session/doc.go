// Package session holds operator sessions in a process-local map keyed
// by opaque high-entropy tokens.
//
// Tokens carry 256 bits from crypto/rand, hex encoded. A token is valid
// only while it is present in the map and younger than the store TTL;
// expired entries are dropped lazily on lookup and swept periodically by
// the owner of the store.
package session
