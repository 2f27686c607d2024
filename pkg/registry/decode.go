package registry

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies normalized parameters into out, a pointer to a struct whose
// fields carry mapstructure tags. Parameters without a matching field are an
// error.
func Decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
