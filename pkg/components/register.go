package components

import "github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"

// Register adds the built-in models, optimizers and schedulers to reg.
func Register(reg *registry.Registry) {
	for _, c := range []registry.Component{
		mlpComponent(),
		sgdComponent(),
		adamwComponent(),
		constantComponent(),
		cosineDecayComponent(),
		stepComponent(),
	} {
		reg.Register(c)
	}
}
