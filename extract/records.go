package extract

// recordsFrom splits a decoded page payload into individual records. A JSON
// array yields one record per element; a JSON object is itself one record.
// Scalar array elements are wrapped under a "value" key so provenance can
// still be attached.
func recordsFrom(payload interface{}) []map[string]interface{} {
	switch v := payload.(type) {
	case []interface{}:
		records := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				records = append(records, m)
				continue
			}
			records = append(records, map[string]interface{}{"value": item})
		}
		return records
	case map[string]interface{}:
		if len(v) == 0 {
			return nil
		}
		return []map[string]interface{}{v}
	default:
		return nil
	}
}
