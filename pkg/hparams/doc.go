// Package hparams resolves a run configuration from layered sources.
//
// A YAML document supplies the base tree; CLI tokens of the form
// `--key value`, `--key.nested value` or `--key=value` overlay it by dotted
// path, and always win. The merged tree is validated against a static
// schema.Schema: types and ranges are checked, defaults are filled in and
// unknown keys are rejected. Resolution is all-or-nothing: it either returns
// a read-only *Config or a *ConfigurationError naming every offending key.
//
//	r := hparams.NewResolver(trainer.Schema(reg))
//	cfg, err := r.Resolve("run.yaml", []string{"--optimizer.lr", "0.05"})
//	data, _ := cfg.ToYAML() // canonical: sorted keys, stable numbers
//
// Resolving the canonical YAML again, with no overrides, yields an equal
// Config.
package hparams
