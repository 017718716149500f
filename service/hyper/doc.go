// Package hyper extends a completed stage result with a follow-up fit of
// nuisance parameters (sky level, background noise, noise scaling) while the
// science model stays fixed at the primary best instance.  It also derives
// stochastic likelihood caps for noisy analyses.
package hyper
