package app

import (
	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/modules/cel"
	"github.com/vk/gridflow/modules/noop"
	"github.com/vk/gridflow/modules/print"
)

// coreModules are the runners registered when the caller does not supply
// its own set.
var coreModules = []registry.Module{
	&cel.Module{},
	&noop.Module{},
	&print.Module{},
}
