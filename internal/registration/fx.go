package registration

import (
	"github.com/modoocon/modoocon/internal/registration/repository"
	"github.com/modoocon/modoocon/internal/registration/service"
	"go.uber.org/fx"
)

var Module = fx.Module("registration.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
