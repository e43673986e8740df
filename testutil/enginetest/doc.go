// Package enginetest provides a behavioural contract suite that every circulation.Engine
// implementation must pass.
//
// Engine packages call RunContract from their own tests with a factory that returns a fresh,
// empty engine for every sub-test.
package enginetest
