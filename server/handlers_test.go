package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/ingest/database"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/monitor"
	"github.com/skillsenselab/ingest/pipeline"
	"github.com/skillsenselab/ingest/storage"
)

type memStorage struct {
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.data[path] = data
	return nil
}

func (m *memStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.data[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.data[path]
	return ok, nil
}

func (m *memStorage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			files = append(files, storage.FileInfo{Path: k, Size: int64(len(v)), LastModified: time.Now()})
		}
	}
	return files, nil
}

// newTestAPI wires a full API over an in-memory database and a stub
// upstream endpoint serving two records.
func newTestAPI(t *testing.T) (*gin.Engine, *monitor.Recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"1","type":"push"},{"id":"2","type":"fork"}]`)
	}))
	t.Cleanup(upstream.Close)

	dir := t.TempDir()
	definition := fmt.Sprintf(`name: events
base_url: %s
endpoint: /events
mappings:
  - source: id
    target: id
    type: string
  - source: type
    target: event_type
    type: string
unique_keys:
  - id
`, upstream.URL)
	if err := os.WriteFile(filepath.Join(dir, "events.yaml"), []byte(definition), 0o644); err != nil {
		t.Fatalf("write definition: %v", err)
	}
	legacy := strings.Replace(definition, "name: events", "name: legacy", 1)
	if err := os.WriteFile(filepath.Join(dir, "legacy.yml"), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy definition: %v", err)
	}

	db, err := database.Open(context.Background(), database.Config{DSN: ":memory:", LogLevel: "silent"}, logger.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	runner := pipeline.NewRunner(db, storage.NewPayloadStore(newMemStorage()), logger.Nop())
	recorder := monitor.NewRecorder(db, logger.Nop())
	if err := recorder.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	engine := gin.New()
	NewHandlers(runner, recorder, dir, logger.Nop()).Register(engine)
	return engine, recorder
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestTriggerRun(t *testing.T) {
	engine, _ := newTestAPI(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/runs",
		`{"pipeline":"events","run_date":"2024-01-15"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data monitor.RunRecord `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.Status != monitor.StatusSuccess {
		t.Errorf("status = %q, want success", resp.Data.Status)
	}
	if resp.Data.RowsProcessed != 2 {
		t.Errorf("rows_processed = %d, want 2", resp.Data.RowsProcessed)
	}
	if resp.Data.RunDate != "2024-01-15" {
		t.Errorf("run_date = %q, want 2024-01-15", resp.Data.RunDate)
	}
}

func TestTriggerRun_YmlExtension(t *testing.T) {
	engine, _ := newTestAPI(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/runs",
		`{"pipeline":"legacy","run_date":"2024-01-15"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data monitor.RunRecord `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.Status != monitor.StatusSuccess || resp.Data.DagID != "legacy" {
		t.Errorf("record = %q/%q, want success/legacy", resp.Data.Status, resp.Data.DagID)
	}
}

func TestTriggerRun_UnknownPipeline(t *testing.T) {
	engine, _ := newTestAPI(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/runs", `{"pipeline":"missing"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTriggerRun_RejectsPathTraversal(t *testing.T) {
	engine, _ := newTestAPI(t)

	for _, name := range []string{"../etc/passwd", "a/b", `a\b`} {
		w := doRequest(t, engine, http.MethodPost, "/api/v1/runs",
			fmt.Sprintf(`{"pipeline":%q}`, name))
		if w.Code != http.StatusBadRequest {
			t.Errorf("pipeline %q: status = %d, want 400", name, w.Code)
		}
	}
}

func TestTriggerRun_MissingBody(t *testing.T) {
	engine, _ := newTestAPI(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/runs", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListRuns(t *testing.T) {
	engine, recorder := newTestAPI(t)
	ctx := context.Background()

	msg := "boom"
	recorder.Record(ctx, &monitor.RunRecord{
		RunID: "r1", DagID: "events", RunDate: "2024-01-14",
		Status: monitor.StatusSuccess, CreatedAt: time.Now().UTC().Add(-time.Hour),
	})
	recorder.Record(ctx, &monitor.RunRecord{
		RunID: "r2", DagID: "events", RunDate: "2024-01-15",
		Status: monitor.StatusFailed, ErrorMessage: &msg, CreatedAt: time.Now().UTC(),
	})

	w := doRequest(t, engine, http.MethodGet, "/api/v1/runs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data []monitor.RunRecord `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("returned %d records, want 2", len(resp.Data))
	}
	if resp.Data[0].RunID != "r2" {
		t.Errorf("first record = %q, want newest (r2)", resp.Data[0].RunID)
	}

	w = doRequest(t, engine, http.MethodGet, "/api/v1/runs?status=failed", "")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Status != monitor.StatusFailed {
		t.Errorf("failed filter returned %+v", resp.Data)
	}
}

func TestListRuns_BadParams(t *testing.T) {
	engine, _ := newTestAPI(t)

	if w := doRequest(t, engine, http.MethodGet, "/api/v1/runs?limit=zero", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", w.Code)
	}
	if w := doRequest(t, engine, http.MethodGet, "/api/v1/runs?status=pending", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad status: status = %d, want 400", w.Code)
	}
}

func TestHealth(t *testing.T) {
	engine, _ := newTestAPI(t)

	w := doRequest(t, engine, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
