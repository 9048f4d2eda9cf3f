package event

import (
	"github.com/modoocon/modoocon/internal/event/repository"
	"github.com/modoocon/modoocon/internal/event/service"
	"go.uber.org/fx"
)

var Module = fx.Module("event.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
