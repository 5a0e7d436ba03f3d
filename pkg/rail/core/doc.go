// Package core contains the pipeline's cross-cutting plumbing: the Settings
// and Observer ports handed to every stage, context helpers for carrying them,
// and small channel adapters. It does not run anything itself; packages ring,
// stage and chain consume it.
package core
