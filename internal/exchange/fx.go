package exchange

import (
	"github.com/modoocon/modoocon/internal/exchange/provider"
	"github.com/modoocon/modoocon/internal/exchange/repository"
	"github.com/modoocon/modoocon/internal/exchange/service"
	"go.uber.org/fx"
)

var Module = fx.Module("exchange.service",
	fx.Provide(repository.Provide),
	fx.Provide(provider.New),
	fx.Provide(service.New),
)
