package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
)

// PayloadStore addresses raw and invalid payloads on top of a Storage
// backend. Raw pages are keyed by (pipeline, run date, page index); invalid
// batches by (pipeline, run date). Write-only during normal operation;
// reads exist for inspection and tests.
type PayloadStore struct {
	store Storage
}

// NewPayloadStore wraps a Storage backend.
func NewPayloadStore(store Storage) *PayloadStore {
	return &PayloadStore{store: store}
}

// RawPagePath returns the address of one fetched page.
func RawPagePath(pipeline, runDate string, page int) string {
	return fmt.Sprintf("raw/%s/%s/response_%03d.json", pipeline, runDate, page)
}

// InvalidPath returns the address of the invalid-record archive for a run.
func InvalidPath(pipeline, runDate string) string {
	return fmt.Sprintf("invalid/%s/%s/invalid_records.json", pipeline, runDate)
}

// SaveRawPage persists one fetched page before the extractor advances, so
// partial extraction failures stay inspectable.
func (p *PayloadStore) SaveRawPage(ctx context.Context, pipeline, runDate string, page int, payload []byte) error {
	return p.store.Upload(ctx, RawPagePath(pipeline, runDate, page), bytes.NewReader(payload))
}

// SaveInvalid persists the invalid records of a run together with their
// violation reasons.
func (p *PayloadStore) SaveInvalid(ctx context.Context, pipeline, runDate string, payload []byte) error {
	return p.store.Upload(ctx, InvalidPath(pipeline, runDate), bytes.NewReader(payload))
}

// ListRawPages returns the stored page paths for a run in page order.
func (p *PayloadStore) ListRawPages(ctx context.Context, pipeline, runDate string) ([]string, error) {
	prefix := fmt.Sprintf("raw/%s/%s/", pipeline, runDate)
	files, err := p.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadRawPage returns the payload stored for one page.
func (p *PayloadStore) ReadRawPage(ctx context.Context, pipeline, runDate string, page int) ([]byte, error) {
	rc, err := p.store.Download(ctx, RawPagePath(pipeline, runDate, page))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
