// Package correlator matches asynchronous editor responses to their
// originating requests by identifier.
//
// Ownership boundary:
// - request identifier assignment
// - pending request table and per-request timeouts
// - event fan-out to typed subscribers
// - fail-all on peer disconnect
package correlator
