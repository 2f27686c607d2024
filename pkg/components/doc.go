// Package components registers the built-in models, optimizers and
// learning-rate schedulers.
//
// The components keep the bookkeeping a trainer needs (learning rates,
// step counts, parameter counts) and no tensor math.
package components
