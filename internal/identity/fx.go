package identity

import (
	"github.com/modoocon/modoocon/internal/identity/repository"
	"github.com/modoocon/modoocon/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
