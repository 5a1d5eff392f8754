// Package resilience provides the rate limiter and retry primitives used by
// the extractor: a token-bucket limiter expressed as a request budget per
// rolling window, and exponential-backoff retry with jitter for transient
// HTTP failures.
package resilience
