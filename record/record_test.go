package record

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	data := map[string]interface{}{
		"id": "1",
		"repo": map[string]interface{}{
			"id":   float64(42),
			"name": "example",
		},
		"actor": map[string]interface{}{
			"details": map[string]interface{}{
				"login": "alice",
			},
		},
		"empty": nil,
	}

	tests := []struct {
		path     string
		want     interface{}
		wantOK   bool
	}{
		{"id", "1", true},
		{"repo.id", float64(42), true},
		{"repo.name", "example", true},
		{"actor.details.login", "alice", true},
		{"empty", nil, true},
		{"missing", nil, false},
		{"repo.missing", nil, false},
		{"id.nested", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Resolve(data, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name       string
		value      interface{}
		targetType string
		format     string
		want       interface{}
		wantErr    bool
	}{
		{name: "string passthrough", value: "abc", targetType: "string", want: "abc"},
		{name: "number to string", value: float64(7), targetType: "string", want: "7"},
		{name: "bool to string", value: true, targetType: "string", want: "true"},

		{name: "json number to int", value: float64(42), targetType: "int", want: int64(42)},
		{name: "string to int", value: "13", targetType: "int", want: int64(13)},
		{name: "fractional to int fails", value: 1.5, targetType: "int", wantErr: true},
		{name: "text to int fails", value: "abc", targetType: "int", wantErr: true},

		{name: "float passthrough", value: 2.5, targetType: "float", want: 2.5},
		{name: "string to float", value: "2.5", targetType: "float", want: 2.5},
		{name: "text to float fails", value: "x", targetType: "float", wantErr: true},

		{name: "bool passthrough", value: true, targetType: "bool", want: true},
		{name: "yes to bool", value: "yes", targetType: "bool", want: true},
		{name: "zero string to bool", value: "0", targetType: "bool", want: false},
		{name: "text to bool fails", value: "maybe", targetType: "bool", wantErr: true},

		{name: "nil stays nil", value: nil, targetType: "int", want: nil},
		{name: "unknown type fails", value: "x", targetType: "decimal", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.targetType, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce: %v", err)
			}
			if got != tt.want {
				t.Errorf("value = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCoerce_Datetime(t *testing.T) {
	t.Run("explicit format", func(t *testing.T) {
		got, err := Coerce("2026-08-27T10:00:00Z", "datetime", time.RFC3339)
		if err != nil {
			t.Fatalf("Coerce: %v", err)
		}
		want := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
		if !got.(time.Time).Equal(want) {
			t.Errorf("value = %v, want %v", got, want)
		}
	})

	t.Run("fallback layouts", func(t *testing.T) {
		for _, s := range []string{"2026-08-27T10:00:00Z", "2026-08-27 10:00:00", "2026-08-27"} {
			if _, err := Coerce(s, "datetime", ""); err != nil {
				t.Errorf("Coerce(%q): %v", s, err)
			}
		}
	})

	t.Run("unix epoch", func(t *testing.T) {
		got, err := Coerce(float64(1756288800), "datetime", "")
		if err != nil {
			t.Fatalf("Coerce: %v", err)
		}
		if got.(time.Time).Unix() != 1756288800 {
			t.Errorf("value = %v", got)
		}
	})

	t.Run("format mismatch fails", func(t *testing.T) {
		if _, err := Coerce("27/08/2026", "datetime", time.RFC3339); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("garbage fails", func(t *testing.T) {
		if _, err := Coerce("not a date", "datetime", ""); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
