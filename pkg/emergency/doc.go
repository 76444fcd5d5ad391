// Package emergency implements the global shutdown latch: a durable,
// shared on/off switch that instantly denies traffic while an incident is
// being handled.
//
// The latch is a two-state machine, INACTIVE ⇄ ACTIVE, toggled only by
// explicit authorized calls; there is no automatic timeout. Both
// transitions are idempotent so repeated incident commands are safe.
// Every read path fails closed: when the durable store is unreachable or
// its payload unparseable, IsActive reports true and the gateway denies.
package emergency
