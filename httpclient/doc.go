// Package httpclient provides the HTTP client used for REST extraction.
//
// The client carries a base URL, default query parameters and headers,
// configurable authentication (none, bearer, basic, API key in header or
// query), bounded retry with exponential backoff for transient failures,
// and a client-side rate limiter that delays requests instead of dropping
// them. Responses with non-2xx statuses are classified into typed errors.
package httpclient
