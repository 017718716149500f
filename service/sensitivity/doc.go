// Package sensitivity maps how strongly the evidence for a model responds to
// an injected perturbation across a grid of perturbation values.  Each grid
// cell simulates its own dataset and fits the science model with and without
// the perturbation; the per-cell evidence difference is the sensitivity
// signal.
package sensitivity
