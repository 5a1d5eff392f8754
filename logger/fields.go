package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldPipeline  = "pipeline"
	FieldRunID     = "run_id"
	FieldRunDate   = "run_date"
	FieldStage     = "stage"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldPage      = "page"
	FieldRows      = "rows"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Fields("pipeline", "github_events", "page", 3)
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// MaskSecret hides sensitive parts of a string for safe display in logs.
// If the string is shorter than visiblePrefix, it is fully masked.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
