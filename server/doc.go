// Package server exposes the trigger/monitor HTTP API: POST /api/v1/runs
// executes a pipeline for a run date and GET /api/v1/runs reads the monitor
// table. Dashboards and schedulers are expected to be the only clients.
package server
