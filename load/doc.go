// Package load commits transformed rows to the target table.
//
// Pipelines with unique keys get true upserts: insert on new keys,
// overwrite non-key columns on collision. Pipelines without unique keys
// fall back to replacing the run date's rows wholesale, which keeps
// re-runs idempotent without a key. Every load call is one transaction.
package load
