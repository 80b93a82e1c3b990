package chargeability

import (
	"github.com/cazfleet/accounts/internal/chargeability/repository"
	"github.com/cazfleet/accounts/internal/chargeability/service"
	"go.uber.org/fx"
)

var Module = fx.Module("chargeability.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
