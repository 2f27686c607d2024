// Package trainer assembles a training run from a resolved configuration
// and drives it through a sequence of events.
//
// The numerics of training live behind the Model, Optimizer, Scheduler and
// Algorithm interfaces. The trainer itself only owns the clock: it counts
// epochs and batches, applies learning-rate schedules and fires events.
package trainer
