package billing

import (
	"go.uber.org/fx"

	"github.com/baizehq/baize/internal/billing/repository"
	"github.com/baizehq/baize/internal/billing/service"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.New),
	fx.Provide(repository.NewTotalsSource),
	fx.Provide(service.New),
)
