package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/database"
	"github.com/skillsenselab/ingest/errors"
	"github.com/skillsenselab/ingest/extract"
	"github.com/skillsenselab/ingest/load"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/monitor"
	"github.com/skillsenselab/ingest/storage"
	"github.com/skillsenselab/ingest/transform"
	"github.com/skillsenselab/ingest/validate"
)

// ZeroValidPolicy decides what a run with zero valid records after
// validation means.
type ZeroValidPolicy int

const (
	// ZeroValidSucceed records the run as a success with rows_processed=0.
	// This is the default.
	ZeroValidSucceed ZeroValidPolicy = iota
	// ZeroValidFail records the run as failed so alerting picks it up.
	ZeroValidFail
)

// Option customizes a Runner.
type Option func(*Runner)

// WithZeroValidPolicy selects how runs with zero valid records are recorded.
func WithZeroValidPolicy(p ZeroValidPolicy) Option {
	return func(r *Runner) { r.zeroValid = p }
}

// Runner sequences the four pipeline stages for one (definition, run date)
// pair. Stage failures become a failed run record; only config and
// record-write failures escape to the caller.
type Runner struct {
	db        *database.DB
	store     *storage.PayloadStore
	recorder  *monitor.Recorder
	log       *logger.Logger
	zeroValid ZeroValidPolicy
	now       func() time.Time
}

// NewRunner builds a pipeline runner over shared infrastructure. Runners
// are safe for concurrent runs; all run-scoped state lives on the stack.
func NewRunner(db *database.DB, store *storage.PayloadStore, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		db:       db,
		store:    store,
		recorder: monitor.NewRecorder(db, log),
		log:      log.WithComponent("pipeline"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunFile loads the definition at configPath and executes it for runDate.
// This is the entry point schedulers and the HTTP API call.
func (r *Runner) RunFile(ctx context.Context, configPath, runDate string) (*monitor.RunRecord, error) {
	cfg, err := config.LoadPipeline(configPath)
	if err != nil {
		// A malformed definition fails before a run exists: no run record.
		return nil, err
	}
	return r.Run(ctx, cfg, runDate)
}

// Run executes extract, validate, transform, and load for one run date and
// always attempts to write the run record afterwards. An empty runDate
// defaults to today.
func (r *Runner) Run(ctx context.Context, cfg *config.Pipeline, runDate string) (*monitor.RunRecord, error) {
	start := r.now()
	if runDate == "" {
		runDate = start.UTC().Format("2006-01-02")
	}

	runLog := r.log.WithFields(map[string]interface{}{
		logger.FieldPipeline: cfg.Name,
		logger.FieldRunDate:  runDate,
	})
	runLog.Info("run started")

	if err := r.recorder.Ensure(ctx); err != nil {
		return nil, err
	}

	rowsLoaded, execErr := r.execute(ctx, cfg, runDate, runLog)

	rec := &monitor.RunRecord{
		RunID:         uuid.NewString(),
		DagID:         cfg.Name,
		RunDate:       runDate,
		RowsProcessed: rowsLoaded,
		DurationSec:   r.now().Sub(start).Seconds(),
		Status:        monitor.StatusSuccess,
	}
	if execErr != nil {
		rec.Status = monitor.StatusFailed
		msg := errorMessage(execErr)
		rec.ErrorMessage = &msg
		rec.RowsProcessed = 0
		runLog.WithError(execErr).Error("run failed", map[string]interface{}{
			logger.FieldRunID: rec.RunID,
		})
	} else {
		runLog.Info("run succeeded", map[string]interface{}{
			logger.FieldRunID:    rec.RunID,
			logger.FieldRows:     rowsLoaded,
			logger.FieldDuration: rec.DurationSec,
		})
	}

	// Recording always happens, and its failure is fatal: a run whose
	// outcome cannot be recorded must not look healthy.
	if err := r.recorder.Record(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// execute walks the stages in order, stopping at the first failure.
func (r *Runner) execute(ctx context.Context, cfg *config.Pipeline, runDate string, runLog *logger.Logger) (int, error) {
	runLog.Debug("stage transition", map[string]interface{}{logger.FieldStage: errors.StageExtract})
	extractor, err := extract.New(cfg, r.store, r.log)
	if err != nil {
		return 0, err
	}
	batch, err := extractor.Run(ctx, runDate)
	if err != nil {
		return 0, err
	}

	runLog.Debug("stage transition", map[string]interface{}{logger.FieldStage: errors.StageValidate})
	result, err := validate.New(cfg, r.store, r.log).Run(ctx, runDate, batch)
	if err != nil {
		return 0, err
	}
	if len(result.Valid) == 0 && r.zeroValid == ZeroValidFail {
		return 0, errors.Validation("no valid records after validation")
	}

	runLog.Debug("stage transition", map[string]interface{}{logger.FieldStage: errors.StageTransform})
	rows := transform.New(cfg, r.log).Run(result.Valid)

	runLog.Debug("stage transition", map[string]interface{}{logger.FieldStage: errors.StageLoad})
	loaded, err := load.New(cfg, r.db, r.log).Run(ctx, runDate, rows)
	if err != nil {
		return 0, err
	}
	return loaded.RowsLoaded, nil
}

// errorMessage extracts the human-readable message destined for the
// monitor table's error_message column. The wrapped cause is folded in so
// a failed load records the underlying database error, not just the stage
// summary.
func errorMessage(err error) string {
	var pe *errors.PipelineError
	if errors.As(err, &pe) {
		if pe.Cause != nil {
			return fmt.Sprintf("%s: %v", pe.Message, pe.Cause)
		}
		return pe.Message
	}
	return err.Error()
}
