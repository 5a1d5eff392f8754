// Package pipeline orchestrates one ingestion run: extract, validate,
// transform, load, then record. Any stage failure skips the remaining
// stages and is captured in a failed run record; the record write itself is
// the only stage guaranteed to run and the only one whose failure escapes.
package pipeline
