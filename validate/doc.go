// Package validate partitions raw record batches against a pipeline's
// declarative schema rules.
//
// Violations are record-scoped: a record failing any required-column,
// non-null, type-coercion, or in-batch uniqueness rule lands in the invalid
// partition with its reasons and is archived to the payload store. Only the
// invalid-ratio guard rejects a whole batch.
package validate
