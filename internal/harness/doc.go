// Package harness runs YAML conformance scenarios against a fresh
// in-memory ledger. Scenarios drive a manual clock through the event
// lifecycle, assert expected rejection codes step by step, and compare
// the final state against golden snapshots.
package harness
