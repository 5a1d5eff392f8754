package load

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/database"
	"github.com/skillsenselab/ingest/errors"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/transform"
)

// ColRunDate is the fallback idempotency column added when a pipeline
// declares no unique keys.
const ColRunDate = "run_date"

// Result reports what a load call committed.
type Result struct {
	// RowsLoaded is the number of rows the transaction committed. It is
	// used verbatim as rows_processed in the run record.
	RowsLoaded int
}

// Loader writes transformed rows into the target table inside a single
// transaction. With unique keys it upserts (last write wins, within and
// across runs); without them it replaces the run date's slice of the table.
type Loader struct {
	cfg *config.Pipeline
	db  *database.DB
	log *logger.Logger
}

// New builds a loader for one pipeline.
func New(cfg *config.Pipeline, db *database.DB, log *logger.Logger) *Loader {
	return &Loader{
		cfg: cfg,
		db:  db,
		log: log.WithComponent("loader").WithFields(map[string]interface{}{logger.FieldPipeline: cfg.Name}),
	}
}

// Run ensures the target table exists and commits all rows in one
// transaction. Either every row commits or none do.
func (l *Loader) Run(ctx context.Context, runDate string, rows []transform.Row) (*Result, error) {
	if len(rows) == 0 {
		return &Result{}, nil
	}

	if err := l.ensureTable(ctx); err != nil {
		return nil, err
	}

	var loaded int64
	err := l.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if len(l.cfg.UniqueKeys) > 0 {
			n, err := l.upsert(tx, rows)
			loaded = n
			return err
		}
		n, err := l.replaceRunDate(tx, runDate, rows)
		loaded = n
		return err
	})
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("load %d rows into %s", len(rows), l.cfg.TableName()), err)
	}

	l.log.Info("load complete", map[string]interface{}{
		logger.FieldRows: loaded,
		"table":          l.cfg.TableName(),
	})
	return &Result{RowsLoaded: int(loaded)}, nil
}

// upsert inserts all rows, overwriting non-key columns on key collision.
func (l *Loader) upsert(tx *gorm.DB, rows []transform.Row) (int64, error) {
	keyCols := make([]clause.Column, len(l.cfg.UniqueKeys))
	keySet := make(map[string]bool, len(l.cfg.UniqueKeys))
	for i, k := range l.cfg.UniqueKeys {
		keyCols[i] = clause.Column{Name: k}
		keySet[k] = true
	}

	var updateCols []string
	for _, col := range l.columns(false) {
		if !keySet[col] {
			updateCols = append(updateCols, col)
		}
	}

	onConflict := clause.OnConflict{Columns: keyCols, DoNothing: len(updateCols) == 0}
	if len(updateCols) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(updateCols)
	}

	batch := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		batch[i] = map[string]interface{}(row)
	}

	res := tx.Table(l.cfg.TableName()).Clauses(onConflict).Create(batch)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// replaceRunDate deletes the run date's existing rows, then inserts the new
// ones with a run_date column attached. Re-running the same run date swaps
// its slice of the table rather than duplicating it.
func (l *Loader) replaceRunDate(tx *gorm.DB, runDate string, rows []transform.Row) (int64, error) {
	table := l.cfg.TableName()
	if err := tx.Table(table).Where(ColRunDate+" = ?", runDate).Delete(nil).Error; err != nil {
		return 0, err
	}

	batch := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		withDate := make(map[string]interface{}, len(row)+1)
		for k, v := range row {
			withDate[k] = v
		}
		withDate[ColRunDate] = runDate
		batch[i] = withDate
	}

	res := tx.Table(table).Create(batch)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ensureTable creates the target table from the mapping declaration when it
// does not exist yet.
func (l *Loader) ensureTable(ctx context.Context) error {
	ddl := l.createTableSQL()
	if err := l.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return errors.Load(fmt.Sprintf("ensure table %s", l.cfg.TableName()), err)
	}
	return nil
}

// createTableSQL renders the CREATE TABLE IF NOT EXISTS statement for the
// target table: one column per mapping target plus the metadata columns,
// with the unique keys as primary key when declared.
func (l *Loader) createTableSQL() string {
	withRunDate := len(l.cfg.UniqueKeys) == 0

	var defs []string
	for _, m := range l.cfg.Mappings {
		defs = append(defs, fmt.Sprintf("%q %s", m.Target, sqlType(m.Type)))
	}
	defs = append(defs, fmt.Sprintf("%q DATETIME", transform.ColIngestionTimestamp))
	defs = append(defs, fmt.Sprintf("%q TEXT", transform.ColSource))
	if withRunDate {
		defs = append(defs, fmt.Sprintf("%q TEXT", ColRunDate))
	}

	if len(l.cfg.UniqueKeys) > 0 {
		quoted := make([]string, len(l.cfg.UniqueKeys))
		for i, k := range l.cfg.UniqueKeys {
			quoted[i] = fmt.Sprintf("%q", k)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", l.cfg.TableName(), strings.Join(defs, ", "))
}

// columns returns the output column names in declaration order.
func (l *Loader) columns(withRunDate bool) []string {
	cols := append(l.cfg.TargetColumns(), transform.ColIngestionTimestamp, transform.ColSource)
	if withRunDate {
		cols = append(cols, ColRunDate)
	}
	return cols
}

func sqlType(t string) string {
	switch t {
	case config.TypeInt:
		return "INTEGER"
	case config.TypeFloat:
		return "REAL"
	case config.TypeBool:
		return "BOOLEAN"
	case config.TypeDatetime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}
