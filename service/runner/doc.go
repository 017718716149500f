// Package runner executes one model+data fit at a time: it validates the
// parameter space, hands it to a registered optimisation backend, records the
// fit lifecycle and wraps the backend's raw samples into an immutable stage
// result.  It neither retries nor inspects domain semantics - retry policy
// belongs to the orchestrator, domain correctness to the priors.
package runner
