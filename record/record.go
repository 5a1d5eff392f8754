package record

import "time"

// Raw is one API-returned object: an arbitrarily nested key/value structure
// plus provenance. Immutable once fetched.
type Raw struct {
	// Data is the decoded JSON object.
	Data map[string]interface{}

	// Source is the pipeline name the record was fetched for.
	Source string

	// FetchedAt is the wall-clock fetch time.
	FetchedAt time.Time

	// Page is the 1-based page index the record arrived on.
	Page int

	// Cursor is the cursor position the page was fetched at, if any.
	Cursor string
}

// Batch is an ordered collection of raw records.
type Batch []Raw
