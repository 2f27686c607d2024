// Package schema provides a type-safe validation system for configuration trees.
//
// It defines a simple type system with built-in types (string, int, float, bool),
// bounded numbers, enumerations, slices, nested mappings and object references.
// Schemas map field names to types; Normalize walks a decoded YAML tree, rejects
// unknown keys, applies defaults and reports every failure with its dotted path.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "batch_size": schema.IntRange(schema.Exclusive(0), schema.Unbounded()),
//	    "precision":  schema.Optional(schema.OneOf("fp32", "amp", "bf16"), "fp32"),
//	    "optimizer":  schema.Ref("optimizers", registry),
//	}
//
//	tree, err := schema.Normalize(s, data)
//	for _, e := range schema.ValidationErrors(err) {
//	    // e.(*schema.ValidationError).Key == "optimizer.lr"
//	}
//
// Object references are mappings whose "name" key selects a component; the
// remaining keys are validated against that component's own schema when the
// Lookup knows it.
//
// This package has zero external dependencies beyond the Go standard library.
package schema
