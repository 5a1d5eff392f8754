// Package logger provides structured logging for the ingestion pipeline,
// built on zerolog. Components obtain a tagged logger via WithComponent and
// attach run-scoped fields (pipeline, run_id, run_date) with WithFields.
package logger
