package institution

import (
	"github.com/modoocon/modoocon/internal/institution/repository"
	"github.com/modoocon/modoocon/internal/institution/service"
	"go.uber.org/fx"
)

var Module = fx.Module("institution.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
