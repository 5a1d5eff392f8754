package transform

import (
	"math"
	"time"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/record"
)

// Metadata columns added to every transformed row.
const (
	ColIngestionTimestamp = "ingestion_timestamp"
	ColSource             = "source"
)

// Row is one flat, typed output row keyed by target column name.
type Row map[string]interface{}

// Transformer maps validated raw records into the target row shape.
// Conversion failures are field-scoped: the offending column becomes null
// and the row survives. A record that passed validation is never dropped
// here.
type Transformer struct {
	cfg *config.Pipeline
	log *logger.Logger
	now func() time.Time
}

// New builds a transformer for one pipeline.
func New(cfg *config.Pipeline, log *logger.Logger) *Transformer {
	return &Transformer{
		cfg: cfg,
		log: log.WithComponent("transformer").WithFields(map[string]interface{}{logger.FieldPipeline: cfg.Name}),
		now: time.Now,
	}
}

// Run transforms the batch in input order. Every output row carries the
// mapped columns plus ingestion_timestamp (wall-clock time of transform)
// and source (the pipeline name).
func (t *Transformer) Run(records record.Batch) []Row {
	ingestedAt := t.now().UTC()
	rows := make([]Row, 0, len(records))
	for _, raw := range records {
		row := make(Row, len(t.cfg.Mappings)+2)
		for _, m := range t.cfg.Mappings {
			row[m.Target] = t.mapField(raw, m)
		}
		row[ColIngestionTimestamp] = ingestedAt
		row[ColSource] = t.cfg.Name
		rows = append(rows, row)
	}
	return rows
}

// mapField resolves one mapping against one record. Missing paths and
// failed conversions both yield null; only the latter is worth a warning.
func (t *Transformer) mapField(raw record.Raw, m config.Mapping) interface{} {
	value, ok := record.Resolve(raw.Data, m.Source)
	if !ok || value == nil {
		return nil
	}

	targetType := m.Type
	if targetType == "" {
		targetType = config.TypeString
	}
	typed, err := record.Coerce(value, targetType, m.Format)
	if err != nil {
		t.log.Warn("field conversion failed, downgrading to null", map[string]interface{}{
			"source": m.Source,
			"target": m.Target,
			"type":   targetType,
		})
		return nil
	}
	return adjust(typed, targetType, m.Scale, m.Offset)
}

// adjust applies the mapping's scale and offset to numeric values.
func adjust(value interface{}, targetType string, scale, offset *float64) interface{} {
	if scale == nil && offset == nil {
		return value
	}
	var f float64
	switch v := value.(type) {
	case int64:
		f = float64(v)
	case float64:
		f = v
	default:
		return value
	}
	if scale != nil {
		f *= *scale
	}
	if offset != nil {
		f += *offset
	}
	if targetType == config.TypeInt {
		return int64(math.Round(f))
	}
	return f
}
