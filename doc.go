// Package chainfit provides a multi-stage Bayesian model-fitting engine.
//
// A fit decomposes a parameter space (a tree of free and fixed parameters)
// against a dataset through pluggable optimisation backends, and chains
// stages so that each stage's parameter space is seeded from the posterior
// of earlier stages.  Chains are defined declaratively (YAML plans) or
// programmatically, with pluggable service layers such as:
//
//   - runner      - single stage execution through optimisation backends
//   - pipeline    - strict-order stage chaining with prior passing
//   - hyper       - nuisance-parameter extension fits
//   - sensitivity - evidence sensitivity mapping over perturbation grids
//
// Chainfit is designed to be embedded in host applications.  End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv := chainfit.New()
//	rt  := srv.Runtime()
//	plan, _ := rt.LoadPlan(ctx, "slam.yaml")
//	results, _ := rt.RunPlan(ctx, plan, myAnalysis)
//	best := results.Last().Instance()
//
// For more details see the README and individual sub-packages.
package chainfit
