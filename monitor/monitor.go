package monitor

import (
	"context"
	"time"

	"github.com/skillsenselab/ingest/database"
	"github.com/skillsenselab/ingest/errors"
	"github.com/skillsenselab/ingest/logger"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunRecord is one row of the pipeline_monitor table. Records are
// append-only: written exactly once per execution and never updated.
type RunRecord struct {
	RunID         string    `gorm:"column:run_id;primaryKey;size:36" json:"run_id"`
	DagID         string    `gorm:"column:dag_id;size:255;not null;index" json:"dag_id"`
	RunDate       string    `gorm:"column:run_date;size:10;not null" json:"run_date"`
	RowsProcessed int       `gorm:"column:rows_processed;not null" json:"rows_processed"`
	DurationSec   float64   `gorm:"column:duration_sec;not null" json:"duration_sec"`
	Status        string    `gorm:"column:status;size:20;not null;index" json:"status"`
	ErrorMessage  *string   `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName fixes the table name regardless of GORM's pluralization.
func (RunRecord) TableName() string { return "pipeline_monitor" }

// Recorder appends run records and serves monitoring queries. It is the
// single source of truth for run health.
type Recorder struct {
	db  *database.DB
	log *logger.Logger
}

// NewRecorder wraps the database for monitor access.
func NewRecorder(db *database.DB, log *logger.Logger) *Recorder {
	return &Recorder{db: db, log: log.WithComponent("monitor")}
}

// Ensure creates the pipeline_monitor table when missing.
func (r *Recorder) Ensure(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&RunRecord{}); err != nil {
		return errors.Recording(err)
	}
	return nil
}

// Record appends one run record. A failure here is fatal to the run and is
// not retried.
func (r *Recorder) Record(ctx context.Context, rec *RunRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.Recording(err)
	}
	r.log.Info("run recorded", map[string]interface{}{
		logger.FieldRunID:   rec.RunID,
		logger.FieldStatus:  rec.Status,
		logger.FieldRows:    rec.RowsProcessed,
		logger.FieldRunDate: rec.RunDate,
	})
	return nil
}

// Recent returns the newest run records, most recent first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	return r.query(ctx, limit, "")
}

// Failed returns the newest failed runs, most recent first.
func (r *Recorder) Failed(ctx context.Context, limit int) ([]RunRecord, error) {
	return r.query(ctx, limit, StatusFailed)
}

// ByPipeline returns the newest runs of one pipeline, most recent first.
func (r *Recorder) ByPipeline(ctx context.Context, dagID string, limit int) ([]RunRecord, error) {
	var records []RunRecord
	q := r.db.WithContext(ctx).Where("dag_id = ?", dagID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Recorder) query(ctx context.Context, limit int, status string) ([]RunRecord, error) {
	var records []RunRecord
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
