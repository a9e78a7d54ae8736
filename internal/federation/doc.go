// Package federation commits a menu registry to the host menu surface and
// to remote owners.
//
// A materialization pass resets the host surface, then visits owners in
// registry order. Items of the local owner are created directly; items of
// a remote owner are delegated to that owner's agent as an "items"
// message, and the pass waits for the acknowledgment before moving on.
// There is never more than one delegation outstanding.
//
// When a delegation is rejected or times out the pass stops: owners after
// the failure are reported as skipped and never materialized. The Report
// returned for every pass lists the outcome per owner so callers can tell
// a complete pass from a partial one.
//
// Passes are serialized. A pass requested while another one is waiting on
// a delegation queues behind it rather than interleaving its reset with
// the earlier pass.
package federation
