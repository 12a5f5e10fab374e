// Package state keeps per-user conversation values in memory.
// Work for one key is serialized; distinct keys never block each other.
package state
