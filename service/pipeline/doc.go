// Package pipeline chains stage fits in strict declaration order, feeding
// each stage's Build function the accumulated results of every prior stage.
// Prior passing itself lives on result.Result (ChainedModel, InstanceNode);
// the orchestrator only sequences stages and collects results.
package pipeline
