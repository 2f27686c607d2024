package schema

// Schema is a map of field names to their expected types.
// Example: {"lr": Float(), "betas": Slice(Float()), "optimizer": Ref("optimizers", reg)}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Returns an error with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	_, err := Normalize(schema, data)
	return err
}
