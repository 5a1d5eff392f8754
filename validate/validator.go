package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/errors"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/record"
	"github.com/skillsenselab/ingest/storage"
)

// InvalidRecord pairs a rejected record with the ordered list of rules it
// violated.
type InvalidRecord struct {
	Record  record.Raw `json:"record"`
	Reasons []string   `json:"reasons"`
}

// Result partitions a batch: every input record lands in exactly one of
// Valid or Invalid.
type Result struct {
	Valid   record.Batch
	Invalid []InvalidRecord
}

// Validator applies a pipeline's schema rules to raw record batches and
// archives the rejects.
type Validator struct {
	cfg   *config.Pipeline
	store *storage.PayloadStore
	log   *logger.Logger
}

// New builds a validator for one pipeline.
func New(cfg *config.Pipeline, store *storage.PayloadStore, log *logger.Logger) *Validator {
	return &Validator{
		cfg:   cfg,
		store: store,
		log:   log.WithComponent("validator").WithFields(map[string]interface{}{logger.FieldPipeline: cfg.Name}),
	}
}

// Run partitions the batch into valid and invalid records, persists the
// invalid ones with their reasons, and fails the batch when the invalid
// ratio exceeds the configured guard. A batch with zero valid records is
// not an error here.
func (v *Validator) Run(ctx context.Context, runDate string, batch record.Batch) (*Result, error) {
	result := &Result{}
	if v.cfg.Schema == nil {
		result.Valid = batch
		return result, nil
	}

	seen := make(map[string]bool)
	for _, raw := range batch {
		reasons := v.check(raw)

		// Uniqueness applies within the batch: the first record holding a
		// key claims it, later holders are rejected. Cross-run uniqueness
		// belongs to the loader's upsert key.
		if len(reasons) == 0 && len(v.cfg.Schema.Validation.UniqueKeys) > 0 {
			key := batchKey(raw, v.cfg.Schema.Validation.UniqueKeys)
			if seen[key] {
				reasons = append(reasons, fmt.Sprintf("duplicate key: %s", strings.Join(v.cfg.Schema.Validation.UniqueKeys, ", ")))
			} else {
				seen[key] = true
			}
		}

		if len(reasons) > 0 {
			result.Invalid = append(result.Invalid, InvalidRecord{Record: raw, Reasons: reasons})
		} else {
			result.Valid = append(result.Valid, raw)
		}
	}

	if len(result.Invalid) > 0 {
		if err := v.persistInvalid(ctx, runDate, result.Invalid); err != nil {
			return nil, err
		}
		v.log.Warn("records rejected", map[string]interface{}{
			"invalid": len(result.Invalid),
			"valid":   len(result.Valid),
		})
	}

	if ratio := v.cfg.Schema.Validation.MaxInvalidRatio; ratio > 0 && len(batch) > 0 {
		invalidRatio := float64(len(result.Invalid)) / float64(len(batch))
		if invalidRatio > ratio {
			return nil, errors.Validation(fmt.Sprintf(
				"invalid ratio %.2f exceeds maximum %.2f (%d of %d records)",
				invalidRatio, ratio, len(result.Invalid), len(batch))).
				WithDetail("invalid", len(result.Invalid)).
				WithDetail("total", len(batch))
		}
	}
	return result, nil
}

// check applies the record-scoped rules and returns the violations in rule
// order: required columns, non-null fields, then type coercion.
func (v *Validator) check(raw record.Raw) []string {
	schema := v.cfg.Schema
	var reasons []string

	for _, col := range schema.RequiredColumns {
		value, ok := record.Resolve(raw.Data, col)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("required column %s is missing", col))
		} else if value == nil {
			reasons = append(reasons, fmt.Sprintf("required column %s is null", col))
		}
	}

	for _, field := range schema.Validation.NonNullFields {
		value, ok := record.Resolve(raw.Data, field)
		if !ok || value == nil {
			reasons = append(reasons, fmt.Sprintf("non-null field %s is null", field))
		}
	}

	for _, col := range sortedKeys(schema.Dtypes) {
		dtype := schema.Dtypes[col]
		value, ok := record.Resolve(raw.Data, col)
		if !ok || value == nil {
			continue // absence is the required-columns rule's concern
		}
		if _, err := record.Coerce(value, dtype, ""); err != nil {
			reasons = append(reasons, fmt.Sprintf("field %s is not coercible to %s: %v", col, dtype, value))
		}
	}
	return reasons
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// batchKey builds the composite uniqueness key for one record. Missing
// components participate as nulls so records missing the same keys still
// collide.
func batchKey(raw record.Raw, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		value, ok := record.Resolve(raw.Data, k)
		if !ok {
			parts[i] = "\x00"
			continue
		}
		parts[i] = fmt.Sprintf("%v", value)
	}
	return strings.Join(parts, "\x1f")
}

func (v *Validator) persistInvalid(ctx context.Context, runDate string, invalid []InvalidRecord) error {
	payload, err := json.Marshal(invalid)
	if err != nil {
		return errors.Validation(fmt.Sprintf("encode invalid records: %v", err))
	}
	if err := v.store.SaveInvalid(ctx, v.cfg.Name, runDate, payload); err != nil {
		return errors.Validation(fmt.Sprintf("persist invalid records: %v", err))
	}
	return nil
}
