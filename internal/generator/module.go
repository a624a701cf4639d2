package generator

import "go.uber.org/fx"

// Module provides the generator service to Fx.
var Module = fx.Provide(NewService)
