// Package monitor persists per-run execution metadata to the
// pipeline_monitor table: run id, pipeline, run date, rows processed,
// duration, status, and failure message. The table is append-only and is
// what dashboards and alerting read.
package monitor
