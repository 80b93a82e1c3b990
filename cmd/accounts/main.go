package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/cazfleet/accounts/internal/account"
	"github.com/cazfleet/accounts/internal/chargeability"
	"github.com/cazfleet/accounts/internal/clock"
	"github.com/cazfleet/accounts/internal/compliance"
	"github.com/cazfleet/accounts/internal/config"
	"github.com/cazfleet/accounts/internal/lock"
	"github.com/cazfleet/accounts/internal/migration"
	"github.com/cazfleet/accounts/internal/scheduler"
	"github.com/cazfleet/accounts/internal/server"
	"github.com/cazfleet/accounts/internal/vehicle"
	"github.com/cazfleet/accounts/pkg/db"
	"github.com/cazfleet/accounts/pkg/log"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		compliance.Module,
		account.Module,
		chargeability.Module,
		vehicle.Module,

		lock.Module,
		scheduler.Module,
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
