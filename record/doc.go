// Package record defines the raw record type and the shared helpers for
// navigating and converting its nested values: a dotted-path accessor over
// the decoded JSON tree and type coercion for the closed set of column
// types (string, int, float, bool, datetime).
package record
