/*
Package mcontrib configures and launches training runs from a YAML file and
command-line overrides.

A launch goes through four steps:

  - Resolve: the YAML document and the CLI overrides are merged (CLI wins),
    validated against the run schema and normalized into an immutable
    hparams.Config.
  - Materialize: every object reference in the configuration (optimizer,
    schedulers, algorithms, loggers) is constructed through the component
    registry, leaves first, and the trainer is assembled from the result.
  - Publish: on global rank 0 only, the canonical YAML is uploaded to the
    run's artifact sinks as "<run_name>/hparams.yaml" and mirrored into the
    tracking side channel when one is active.
  - Fit: the trainer runs.

# Usage

	reg := mcontrib.NewRegistry()
	launcher := mcontrib.New(reg, mcontrib.WithLogger(logger))

	id, err := dist.FromEnv()
	if err != nil {
		return err
	}
	return launcher.Launch(ctx, hparams.Invocation{
		SourcePath: "run.yaml",
		Overrides:  []string{"--optimizer.lr", "0.05"},
	}, id)

The registry is explicit: components are registered on a *registry.Registry
passed to New, so tests and embedders can add their own.
*/
package mcontrib
