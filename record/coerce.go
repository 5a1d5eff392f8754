package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Datetime layouts tried in order when no explicit format is configured.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a raw JSON value to the declared column type. The format
// argument applies to datetime only; empty means RFC 3339 with fallbacks.
// A nil input returns (nil, nil): nullability is the caller's rule, not a
// conversion failure.
func Coerce(value interface{}, targetType, format string) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch strings.ToLower(targetType) {
	case "string", "":
		return coerceString(value), nil
	case "int":
		return coerceInt(value)
	case "float":
		return coerceFloat(value)
	case "bool":
		return coerceBool(value)
	case "datetime":
		return coerceDatetime(value, format)
	default:
		return nil, fmt.Errorf("unknown target type %q", targetType)
	}
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceInt(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		// JSON numbers decode as float64; reject fractional values.
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func coerceFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

var (
	truthy = map[string]bool{"true": true, "1": true, "yes": true, "y": true, "t": true}
	falsy  = map[string]bool{"false": true, "0": true, "no": true, "n": true, "f": true}
)

func coerceBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if truthy[s] {
			return true, nil
		}
		if falsy[s] {
			return false, nil
		}
		return false, fmt.Errorf("cannot convert %q to bool", v)
	case float64:
		if v == 1 {
			return true, nil
		}
		if v == 0 {
			return false, nil
		}
		return false, fmt.Errorf("cannot convert %v to bool", v)
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

func coerceDatetime(value interface{}, format string) (time.Time, error) {
	s, ok := value.(string)
	if !ok {
		// Numeric epochs arrive as float64 from JSON decoding.
		if f, isNum := value.(float64); isNum {
			return time.Unix(int64(f), 0).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("cannot convert %T to datetime", value)
	}

	if format != "" {
		t, err := time.Parse(format, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse %q with layout %q", s, format)
		}
		return t.UTC(), nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as datetime", s)
}
