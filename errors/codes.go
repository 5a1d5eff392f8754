package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeConfigInvalid indicates a malformed pipeline definition.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeExtractionFailed indicates extraction exhausted its retries.
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	// ErrCodeValidationFailed indicates a batch-level validation failure.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeLoadFailed indicates the load transaction was rolled back.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"
	// ErrCodeRecordingFailed indicates the RunRecord write itself failed.
	ErrCodeRecordingFailed ErrorCode = "RECORDING_FAILED"
)

// Stage name constants used in errors and structured logs.
const (
	StageConfig    = "config"
	StageExtract   = "extract"
	StageValidate  = "validate"
	StageTransform = "transform"
	StageLoad      = "load"
	StageRecord    = "record"
)
