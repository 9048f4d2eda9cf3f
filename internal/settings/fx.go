package settings

import (
	"github.com/modoocon/modoocon/internal/settings/repository"
	"github.com/modoocon/modoocon/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
