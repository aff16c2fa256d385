// Package enrich implements clients for the external ethical-analysis
// providers and the batching, validation, and rate limiting around them.
package enrich
