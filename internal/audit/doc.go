// Package audit detects books whose availability flag disagrees with the ledger.
//
// Findings are reported, never repaired: a mismatch means a unit of work was bypassed,
// and which side is right has to be decided by a person.
package audit
