package payment

import (
	"github.com/modoocon/modoocon/internal/payment/gateway/card"
	"github.com/modoocon/modoocon/internal/payment/gateway/paypal"
	"github.com/modoocon/modoocon/internal/payment/repository"
	"github.com/modoocon/modoocon/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(card.New),
	fx.Provide(paypal.New),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
