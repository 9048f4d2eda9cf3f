package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/migration"
	"github.com/modoocon/modoocon/internal/observability"
	"github.com/modoocon/modoocon/internal/server"
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
		migration.Module,

		server.Module,
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
