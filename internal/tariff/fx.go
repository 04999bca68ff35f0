package tariff

import (
	"go.uber.org/fx"

	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/baizehq/baize/internal/tariff/service"
	"github.com/baizehq/baize/pkg/repository"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.ProvideStore[tariffdomain.Rate]),
	fx.Provide(service.New),
)
