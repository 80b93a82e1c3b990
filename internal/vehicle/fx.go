package vehicle

import (
	"github.com/cazfleet/accounts/internal/vehicle/repository"
	"github.com/cazfleet/accounts/internal/vehicle/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vehicle.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
