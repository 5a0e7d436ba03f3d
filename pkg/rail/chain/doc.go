// Package chain assembles stages into a linear pipeline.
//
// A Chain hands its Settings (logger, observer, progress callback and
// free-form values) to every stage before linking, links the stages in the
// given order and opens the head. Items are then submitted untyped into the
// head; a type mismatch is a rail.ErrSubmission error.
//
// Key operations:
// - New/Link/MustLink: build the pipeline
// - Submit/SubmitParallel: publish items into the head
// - Shutdown: drain and terminate every stage, head first
// - SubmitAndShutdown: both of the above in one call
package chain
