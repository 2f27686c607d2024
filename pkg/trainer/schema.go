package trainer

import (
	"fmt"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
)

// Component kinds referenced by the top-level schema.
const (
	KindModels     = "models"
	KindOptimizers = "optimizers"
	KindSchedulers = "schedulers"
	KindAlgorithms = "algorithms"
	KindLoggers    = "loggers"
)

// Schema returns the top-level run schema. Object references are validated
// against the component parameter schemas found through lookup.
func Schema(lookup schema.Lookup) schema.Schema {
	positive := schema.IntRange(schema.Exclusive(0), schema.Unbounded())
	perEpoch := schema.IntRange(schema.Exclusive(0), schema.Inclusive(MaxDurationValue))
	return schema.Schema{
		hparams.RunNameKey:         schema.Optional(schema.String(), ""),
		"seed":                     schema.Optional(schema.IntRange(schema.Inclusive(0), schema.Unbounded()), 17),
		"max_duration":             DurationType(),
		"batch_size":               positive,
		"train_subset_num_batches": schema.Optional(perEpoch, 1),
		"precision":                schema.Optional(schema.OneOf("fp32", "amp", "bf16"), "fp32"),
		"model":                    schema.Ref(KindModels, lookup),
		"optimizer":                schema.Ref(KindOptimizers, lookup),
		"schedulers":               schema.Optional(schema.Slice(schema.Ref(KindSchedulers, lookup)), []any{}),
		"algorithms":               schema.Optional(schema.Slice(schema.Ref(KindAlgorithms, lookup)), []any{}),
		"loggers":                  schema.Optional(schema.Slice(schema.Ref(KindLoggers, lookup)), []any{}),
		"dataloader": schema.Optional(schema.Object(schema.Schema{
			"num_workers": schema.Optional(schema.IntRange(schema.Inclusive(0), schema.Unbounded()), 0),
			"pin_memory":  schema.Optional(schema.Bool(), false),
			"drop_last":   schema.Optional(schema.Bool(), true),
		}), map[string]any{}),
		"tags": schema.Optional(schema.Freeform(), nil),
	}
}

// DurationType validates a Duration string such as "10ep" or "500ba".
func DurationType() schema.Type {
	return schema.Custom("duration", func(value any) error {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected duration string, got %T", value)
		}
		_, err := ParseDuration(s)
		return err
	})
}
