// Package extract fetches raw records from paginated REST endpoints.
//
// The extractor walks one of four pagination strategies (none, page,
// cursor, next_link), rate-limits and retries individual requests, and
// persists every fetched page to the payload store before advancing, so a
// partially failed run can be inspected from its raw pages.
package extract
