package main

import (
	"github.com/baizehq/baize/internal/clock"
	"github.com/baizehq/baize/internal/migration"
	"github.com/baizehq/baize/internal/observability"
	"github.com/baizehq/baize/internal/server"
	"github.com/baizehq/baize/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
		migration.Module,
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
