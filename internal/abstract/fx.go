package abstract

import (
	"github.com/modoocon/modoocon/internal/abstract/repository"
	"github.com/modoocon/modoocon/internal/abstract/service"
	"go.uber.org/fx"
)

var Module = fx.Module("abstract.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
