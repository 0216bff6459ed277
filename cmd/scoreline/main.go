package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoreline/internal/clock"
	"github.com/smallbiznis/scoreline/internal/config"
	"github.com/smallbiznis/scoreline/internal/migration"
	"github.com/smallbiznis/scoreline/internal/observability"
	"github.com/smallbiznis/scoreline/internal/server"
	"github.com/smallbiznis/scoreline/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
