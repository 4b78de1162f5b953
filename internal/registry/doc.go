// Package registry owns the directory of editor connections.
//
// Ownership boundary:
// - target -> connection map and its status state machine
// - connect/disconnect/active-selection operations
// - periodic health sweep over backing project directories
// - peer-state cache fed by editor events
// - per-instance publish/subscribe fan-out
//
// Transport and correlation failures for expected conditions (editor not
// running, peer unreachable) never cross this boundary as errors; they fold
// into a degraded status. Only caller misuse surfaces as an error.
package registry
