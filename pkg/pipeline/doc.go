// Package pipeline runs an ordered chain of named CI stages.
//
// Stages are registered with CreateStage and run in registration order when End is called.
// Every stage is wrapped in a skip cascade evaluated when the stage is reached: the stage is
// skipped when the build result is already worse than its threshold, when its skip parameter
// is set, when an earlier stage failed and it does not ignore skip-all, or when its own
// predicate says so. Otherwise its body runs with the stage environment, working directory and
// timeout.
//
// The first failure is captured once, on the stage and as the collection's first failing
// stage, and the build result only ever gets worse. Later stages are still visited so they can
// record why they were skipped. Whatever happens, End sends a single completion notification
// built from the run report before returning the first failure.
package pipeline
