package errors

import (
	"errors"
	"fmt"
)

// PipelineError is the unified error type surfaced by pipeline stages.
type PipelineError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Stage names the pipeline stage that produced the error.
	Stage string `json:"stage"`
	// Message is a human-readable error message. It leads the monitor
	// table's error_message column, followed by Cause when one is set.
	Message string `json:"message"`
	// Retryable indicates if re-running the same (config, run date) pair
	// may succeed.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *PipelineError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *PipelineError) WithDetail(key string, value any) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Constructors, one per taxonomy entry ---

// Config creates an error for a malformed pipeline definition. It is fatal
// before a run starts: no RunRecord is written for it.
func Config(reason string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeConfigInvalid, Stage: StageConfig,
		Message: reason, Retryable: false,
	}
}

// Extraction creates an error for a failed extraction after transient
// retries are exhausted. Page and cursor identify the failing position.
func Extraction(reason string, statusCode int, page int, cursor string) *PipelineError {
	e := &PipelineError{
		Code: ErrCodeExtractionFailed, Stage: StageExtract,
		Message: reason, Retryable: true,
		Details: map[string]any{"page": page},
	}
	if statusCode > 0 {
		e.Details["status_code"] = statusCode
	}
	if cursor != "" {
		e.Details["cursor"] = cursor
	}
	return e
}

// Validation creates an error for a batch-level validation failure, such as
// the invalid-ratio guard tripping. Per-record failures are not errors.
func Validation(reason string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeValidationFailed, Stage: StageValidate,
		Message: reason, Retryable: false,
	}
}

// Load creates an error for a transactional load failure. The whole batch
// has been rolled back when this is returned.
func Load(reason string, cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeLoadFailed, Stage: StageLoad,
		Message: reason, Retryable: true, Cause: cause,
	}
}

// Recording creates an error for a failure to persist the RunRecord itself.
// It is fatal and never retried.
func Recording(cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeRecordingFailed, Stage: StageRecord,
		Message: "failed to persist run record", Retryable: false, Cause: cause,
	}
}

// --- Classification helpers ---

// IsConfig reports whether err is a config error.
func IsConfig(err error) bool { return hasCode(err, ErrCodeConfigInvalid) }

// IsExtraction reports whether err is an extraction error.
func IsExtraction(err error) bool { return hasCode(err, ErrCodeExtractionFailed) }

// IsValidation reports whether err is a batch-level validation error.
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidationFailed) }

// IsLoad reports whether err is a load error.
func IsLoad(err error) bool { return hasCode(err, ErrCodeLoadFailed) }

// IsRecording reports whether err is a recording error.
func IsRecording(err error) bool { return hasCode(err, ErrCodeRecordingFailed) }

func hasCode(err error, code ErrorCode) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Code == code
}

// As wraps the stdlib errors.As for callers that already import this package.
func As(err error, target any) bool { return errors.As(err, target) }

// Is wraps the stdlib errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }
