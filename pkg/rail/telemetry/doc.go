// Package telemetry builds the logger, the prometheus metrics and the progress
// reporting that pipelines receive through core.Settings.
package telemetry
