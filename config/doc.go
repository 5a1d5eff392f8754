// Package config defines the two configuration layers of the engine: the
// operator-authored pipeline definition (endpoint, auth, pagination, rate
// limit, schema rules, field mappings, target table, upsert keys) and the
// process-level service configuration (database, payload storage, logging,
// HTTP API).
//
// Pipeline definitions are validated eagerly at load time: strategy strings
// for pagination and auth are resolved into a closed set once, so stage code
// never branches on unrecognized values.
package config
