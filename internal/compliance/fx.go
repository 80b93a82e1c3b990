package compliance

import (
	"github.com/cazfleet/accounts/internal/compliance/client"
	"go.uber.org/fx"
)

var Module = fx.Module("compliance.client",
	fx.Provide(client.New),
)
