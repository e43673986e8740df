// Package memengine provides an in-process implementation of circulation.Engine.
//
// All mutations are serialised through a single writer lock, so issuing and returning
// books can never interleave. Every write inside a unit of work records an undo step;
// when the unit of work fails the steps are replayed in reverse and the state is left
// exactly as it was before.
//
// The store is owned by whoever constructs it. It is meant for tests, demos and
// single-process deployments; nothing is persisted.
package memengine
