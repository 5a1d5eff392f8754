// Package transform flattens validated raw records into typed target rows.
//
// Each mapping resolves a dotted source path, converts to the declared
// target type, and applies optional scale/offset adjustments. Failures are
// field-scoped; rows are enriched with ingestion metadata and emitted in
// input order.
package transform
