// Package errors defines the error taxonomy for pipeline runs.
//
// Stage failures are wrapped in PipelineError with a machine-readable code.
// The orchestrator converts every stage error except CONFIG_INVALID and
// RECORDING_FAILED into a failed RunRecord; those two escape to the caller
// because there is either no run yet, or no way left to record it.
package errors
