// Package transport owns the duplex byte channel to one editor peer.
//
// Ownership boundary:
// - rendezvous endpoint derivation from the target identifier
// - dial with timeout over the platform pipe/socket primitive
// - framed read pump and disconnect detection
// - autonomous reconnect with backoff, joined on Close
package transport
