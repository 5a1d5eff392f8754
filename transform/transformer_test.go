package transform

import (
	"testing"
	"time"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/record"
)

func ptr(f float64) *float64 { return &f }

func newTestTransformer(mappings []config.Mapping) *Transformer {
	cfg := &config.Pipeline{Name: "events", Mappings: mappings}
	tr := New(cfg, logger.Nop())
	tr.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return tr
}

func batchOf(data ...map[string]interface{}) record.Batch {
	batch := make(record.Batch, len(data))
	for i, d := range data {
		batch[i] = record.Raw{Data: d, Source: "events"}
	}
	return batch
}

func TestRun_DottedPathFlattening(t *testing.T) {
	tr := newTestTransformer([]config.Mapping{
		{Source: "id", Target: "id", Type: "string"},
		{Source: "repo.id", Target: "repo_id", Type: "int"},
		{Source: "repo.name", Target: "repo_name", Type: "string"},
	})

	rows := tr.Run(batchOf(map[string]interface{}{
		"id": "ev-1",
		"repo": map[string]interface{}{
			"id":   float64(42),
			"name": "ingest",
		},
	}))
	if len(rows) != 1 {
		t.Fatalf("Run() returned %d rows, want 1", len(rows))
	}
	if rows[0]["repo_id"] != int64(42) {
		t.Errorf("repo_id = %v (%T), want int64 42", rows[0]["repo_id"], rows[0]["repo_id"])
	}
	if rows[0]["repo_name"] != "ingest" {
		t.Errorf("repo_name = %v, want %q", rows[0]["repo_name"], "ingest")
	}
}

func TestRun_MissingPathYieldsNullNotDrop(t *testing.T) {
	tr := newTestTransformer([]config.Mapping{
		{Source: "id", Target: "id", Type: "string"},
		{Source: "repo.id", Target: "repo_id", Type: "int"},
	})

	rows := tr.Run(batchOf(map[string]interface{}{"id": "ev-1"}))
	if len(rows) != 1 {
		t.Fatalf("Run() returned %d rows, want 1 (row must not be dropped)", len(rows))
	}
	if rows[0]["repo_id"] != nil {
		t.Errorf("repo_id = %v, want nil", rows[0]["repo_id"])
	}
	if rows[0]["id"] != "ev-1" {
		t.Errorf("id = %v, want %q", rows[0]["id"], "ev-1")
	}
}

func TestRun_ConversionFailureIsFieldScoped(t *testing.T) {
	tr := newTestTransformer([]config.Mapping{
		{Source: "id", Target: "id", Type: "string"},
		{Source: "count", Target: "count", Type: "int"},
	})

	rows := tr.Run(batchOf(map[string]interface{}{"id": "ev-1", "count": "not-a-number"}))
	if len(rows) != 1 {
		t.Fatalf("Run() returned %d rows, want 1", len(rows))
	}
	if rows[0]["count"] != nil {
		t.Errorf("count = %v, want nil after failed conversion", rows[0]["count"])
	}
	if rows[0]["id"] != "ev-1" {
		t.Errorf("id = %v, want %q (other fields untouched)", rows[0]["id"], "ev-1")
	}
}

func TestRun_Enrichment(t *testing.T) {
	tr := newTestTransformer([]config.Mapping{{Source: "id", Target: "id", Type: "string"}})

	rows := tr.Run(batchOf(map[string]interface{}{"id": "ev-1"}))
	if got := rows[0][ColSource]; got != "events" {
		t.Errorf("source = %v, want %q", got, "events")
	}
	ts, ok := rows[0][ColIngestionTimestamp].(time.Time)
	if !ok {
		t.Fatalf("ingestion_timestamp = %T, want time.Time", rows[0][ColIngestionTimestamp])
	}
	want := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("ingestion_timestamp = %v, want %v", ts, want)
	}
}

func TestRun_DatetimeFormat(t *testing.T) {
	tr := newTestTransformer([]config.Mapping{
		{Source: "day", Target: "day", Type: "datetime", Format: "02/01/2006"},
		{Source: "created_at", Target: "created_at", Type: "datetime"},
	})

	rows := tr.Run(batchOf(map[string]interface{}{
		"day":        "15/01/2024",
		"created_at": "2024-01-15T08:30:00Z",
	}))
	day, ok := rows[0]["day"].(time.Time)
	if !ok || !day.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day = %v, want 2024-01-15", rows[0]["day"])
	}
	created, ok := rows[0]["created_at"].(time.Time)
	if !ok || !created.Equal(time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v, want 2024-01-15T08:30:00Z", rows[0]["created_at"])
	}
}

func TestRun_ScaleAndOffset(t *testing.T) {
	tests := []struct {
		name    string
		mapping config.Mapping
		value   interface{}
		want    interface{}
	}{
		{
			name:    "scale float",
			mapping: config.Mapping{Source: "v", Target: "v", Type: "float", Scale: ptr(0.001)},
			value:   float64(1500),
			want:    1.5,
		},
		{
			name:    "offset float",
			mapping: config.Mapping{Source: "v", Target: "v", Type: "float", Offset: ptr(-273.15)},
			value:   float64(300),
			want:    300 - 273.15,
		},
		{
			name:    "scale and offset int rounds",
			mapping: config.Mapping{Source: "v", Target: "v", Type: "int", Scale: ptr(2.0), Offset: ptr(0.4)},
			value:   float64(3),
			want:    int64(6),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransformer([]config.Mapping{tt.mapping})
			rows := tr.Run(batchOf(map[string]interface{}{"v": tt.value}))
			if rows[0]["v"] != tt.want {
				t.Errorf("v = %v (%T), want %v (%T)", rows[0]["v"], rows[0]["v"], tt.want, tt.want)
			}
		})
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	tr := newTestTransformer([]config.Mapping{{Source: "id", Target: "id", Type: "int"}})

	rows := tr.Run(batchOf(
		map[string]interface{}{"id": float64(3)},
		map[string]interface{}{"id": float64(1)},
		map[string]interface{}{"id": float64(2)},
	))
	want := []int64{3, 1, 2}
	for i, w := range want {
		if rows[i]["id"] != w {
			t.Errorf("rows[%d][id] = %v, want %d", i, rows[i]["id"], w)
		}
	}
}
