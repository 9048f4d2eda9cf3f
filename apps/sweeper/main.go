package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/mailer"
	"github.com/modoocon/modoocon/internal/observability"
	"github.com/modoocon/modoocon/internal/payment/lock"
	"github.com/modoocon/modoocon/internal/settings"
	"github.com/modoocon/modoocon/internal/sweeper"
	"github.com/modoocon/modoocon/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by the sweeper; no server module.
		settings.Module,
		lock.Module,
		mailer.Module,
		sweeper.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
