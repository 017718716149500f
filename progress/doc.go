// Package progress provides a lightweight tracker that keeps aggregated
// run counters (stages total, completed, failed and sensitivity cells) for a
// single pipeline run.  The tracker instance lives in the run context so every
// component that receives the context can atomically update the counters via
// the Delta helper without requiring a global registry.
package progress
