// Package protocol owns the editor wire contract and parsing primitives.
//
// Ownership boundary:
// - JSON message envelope (request/response/event)
// - message kind classification
// - frame primitives (subpackage frame)
package protocol
