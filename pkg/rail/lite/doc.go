// Package lite provides one-call helpers that run a single processor on a
// pool of handlers without building a chain by hand.
//
// Common usage:
// - Run: process a slice, outputs in completion order
// - RunOrdered: process a slice, outputs in input order
// - Turnout: process a channel stream and return an output channel
//
// For multi-stage pipelines see package chain.
package lite
